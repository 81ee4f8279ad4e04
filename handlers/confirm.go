package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const confirmPrefix = "ts:"

// Confirmations tracks pending keep/strip timestamp prompts.
type Confirmations struct {
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]pendingConfirm
}

type pendingConfirm struct {
	userID string
	answer chan bool
}

func NewConfirmations(timeout time.Duration) *Confirmations {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Confirmations{timeout: timeout, pending: make(map[string]pendingConfirm)}
}

// Prompt registers a prompt that only userID may answer and returns its id
// with the buttons to attach to the prompt message.
func (c *Confirmations) Prompt(userID string) (string, []discordgo.MessageComponent) {
	id := uuid.NewString()
	c.mu.Lock()
	c.pending[id] = pendingConfirm{userID: userID, answer: make(chan bool, 1)}
	c.mu.Unlock()

	return id, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Keep start time", Style: discordgo.PrimaryButton, CustomID: confirmPrefix + id + ":keep"},
			discordgo.Button{Label: "Start from beginning", Style: discordgo.SecondaryButton, CustomID: confirmPrefix + id + ":strip"},
		}},
	}
}

// Wait blocks until the prompt is answered, the timeout passes or ctx is
// done. ok is false unless the user answered.
func (c *Confirmations) Wait(ctx context.Context, id string) (keep bool, ok bool) {
	c.mu.Lock()
	p, found := c.pending[id]
	c.mu.Unlock()
	if !found {
		return false, false
	}
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case keep = <-p.answer:
		return keep, true
	case <-timer.C:
		return false, false
	case <-ctx.Done():
		return false, false
	}
}

// Answer delivers a button press. handled reports whether customID belongs to
// a live prompt; allowed is false when someone other than the prompted user
// pressed it.
func (c *Confirmations) Answer(customID, userID string) (handled, allowed bool) {
	rest, ok := strings.CutPrefix(customID, confirmPrefix)
	if !ok {
		return false, false
	}
	id, choice, ok := strings.Cut(rest, ":")
	if !ok {
		return false, false
	}

	c.mu.Lock()
	p, found := c.pending[id]
	c.mu.Unlock()
	if !found {
		return false, false
	}
	if p.userID != userID {
		return true, false
	}
	select {
	case p.answer <- choice == "keep":
	default:
	}
	return true, true
}

// IsConfirmation reports whether customID was produced by Prompt.
func IsConfirmation(customID string) bool {
	return strings.HasPrefix(customID, confirmPrefix)
}
