package videoref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPService reads video metadata by shelling out to yt-dlp. It has no
// channel lookup, so creators on its platforms never get a popularity tier.
type YTDLPService struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPService constructs a service around the yt-dlp binary.
func NewYTDLPService(binary string, timeout time.Duration) *YTDLPService {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPService{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// VideoDetails runs yt-dlp against the reference's canonical URL.
func (p *YTDLPService) VideoDetails(ctx context.Context, ref Reference) (Details, error) {
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, ref.URL)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return Details{}, fmt.Errorf("yt-dlp fetch: %w", err)
	}

	var payload struct {
		Title      string   `json:"title"`
		Duration   *float64 `json:"duration"`
		ChannelID  string   `json:"channel_id"`
		Channel    string   `json:"channel"`
		UploaderID string   `json:"uploader_id"`
		Uploader   string   `json:"uploader"`
		AgeLimit   int      `json:"age_limit"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Details{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}
	if payload.Title == "" && payload.Duration == nil {
		return Details{}, errors.New("yt-dlp returned empty metadata")
	}

	details := Details{
		Title:       payload.Title,
		CreatorID:   firstNonEmpty(payload.ChannelID, payload.UploaderID),
		CreatorName: firstNonEmpty(payload.Channel, payload.Uploader),
		NSFW:        payload.AgeLimit >= 18,
	}
	if payload.Duration != nil {
		seconds := int(*payload.Duration + 0.5)
		details.LengthSeconds = &seconds
	}
	return details, nil
}

// ChannelDetails is not available through yt-dlp.
func (p *YTDLPService) ChannelDetails(context.Context, string) (ChannelDetails, error) {
	return ChannelDetails{}, ErrUnsupported
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
