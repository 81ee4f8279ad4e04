// Package transport adapts a discordgo session to the narrow interfaces the
// lifecycle, showcase and handler packages depend on.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/embed"
)

// ErrMessageNotFound means the referenced message or its channel is gone.
var ErrMessageNotFound = errors.New("message not found")

// Channel is a guild text channel.
type Channel struct {
	ID       string
	Name     string
	ParentID string
	Position int
}

// Discord implements the transport operations on a live session.
type Discord struct {
	session      *discordgo.Session
	votingWindow time.Duration
}

func New(s *discordgo.Session, votingWindow time.Duration) *Discord {
	return &Discord{session: s, votingWindow: votingWindow}
}

// SelfID is the bot's own user id.
func (d *Discord) SelfID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

// FetchMessage checks that the message still exists.
func (d *Discord) FetchMessage(channelID, messageID string) error {
	_, err := d.session.ChannelMessage(channelID, messageID)
	return mapErr(err)
}

// ReactionUsers lists every user id that reacted with emoji, paging through
// the API's 100-user limit.
func (d *Discord) ReactionUsers(channelID, messageID, emoji string) ([]string, error) {
	var ids []string
	after := ""
	for {
		users, err := d.session.MessageReactions(channelID, messageID, emoji, 100, "", after)
		if err != nil {
			return nil, mapErr(err)
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if len(users) < 100 {
			return ids, nil
		}
		after = users[len(users)-1].ID
	}
}

// CategoryChannels lists the text channels under a category.
func (d *Discord) CategoryChannels(guildID, categoryID string) ([]Channel, error) {
	channels, err := d.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels for guild %s: %w", guildID, err)
	}
	var out []Channel
	for _, c := range channels {
		if c.ParentID != categoryID || c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, Channel{ID: c.ID, Name: c.Name, ParentID: c.ParentID, Position: c.Position})
	}
	return out, nil
}

// PostSubmission posts a firehose entry and adds the vote reactions.
func (d *Discord) PostSubmission(channelID string, e embed.Entry, reactions []string) (string, error) {
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: e.URL,
		Embeds:  []*discordgo.MessageEmbed{embed.Submission(e, d.votingWindow)},
	})
	if err != nil {
		return "", fmt.Errorf("post submission to %s: %w", channelID, err)
	}
	for _, r := range reactions {
		if err := d.session.MessageReactionAdd(channelID, msg.ID, r); err != nil {
			return msg.ID, fmt.Errorf("add reaction %s: %w", r, err)
		}
	}
	return msg.ID, nil
}

// PostShowcase posts a promoted video.
func (d *Discord) PostShowcase(channelID string, e embed.Entry) (string, error) {
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: e.URL,
		Embeds:  []*discordgo.MessageEmbed{embed.Showcase(e)},
	})
	if err != nil {
		return "", fmt.Errorf("post showcase to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// StartThread opens a discussion thread on a message.
func (d *Discord) StartThread(channelID, messageID, name string) error {
	if len([]rune(name)) > 100 {
		name = string([]rune(name)[:100])
	}
	_, err := d.session.MessageThreadStart(channelID, messageID, name, 1440)
	return err
}

// DeleteMessage removes a message. A message that is already gone is not an error.
func (d *Discord) DeleteMessage(channelID, messageID string) error {
	err := mapErr(d.session.ChannelMessageDelete(channelID, messageID))
	if errors.Is(err, ErrMessageNotFound) {
		return nil
	}
	return err
}

// DirectMessage sends content to a user's DMs.
func (d *Discord) DirectMessage(userID, content string) error {
	ch, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	_, err = d.session.ChannelMessageSend(ch.ID, content)
	return err
}

// SendEmbed posts a standalone embed.
func (d *Discord) SendEmbed(channelID string, em *discordgo.MessageEmbed) error {
	_, err := d.session.ChannelMessageSendEmbed(channelID, em)
	return err
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
				return fmt.Errorf("%w: %v", ErrMessageNotFound, err)
			}
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", ErrMessageNotFound, err)
		}
	}
	return err
}
