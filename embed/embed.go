package embed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorFirehose = 0x5865f2
	ColorShowcase = 0xf1c40f
	ColorInfo     = 0x00ff00
	ColorWarn     = 0xffff00
	ColorError    = 0xff0000
)

// Entry is one video as presented in the firehose or a showcase channel.
type Entry struct {
	Title             string
	URL               string
	LengthSeconds     *int
	CreatorName       string
	SubmitterID       string
	ExternalSubmitter string
	ExternalURL       string
	Upvotes           int
	Downvotes         int
}

// FormatLength renders seconds as h:mm:ss or m:ss.
func FormatLength(seconds *int) string {
	if seconds == nil {
		return "unknown"
	}
	d := time.Duration(*seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func title(e Entry) string {
	if e.Title != "" {
		return e.Title
	}
	return e.URL
}

func submitter(e Entry) string {
	switch {
	case e.SubmitterID != "":
		return fmt.Sprintf("<@%s>", e.SubmitterID)
	case e.ExternalSubmitter != "" && e.ExternalURL != "":
		return fmt.Sprintf("[%s](%s)", e.ExternalSubmitter, e.ExternalURL)
	case e.ExternalSubmitter != "":
		return e.ExternalSubmitter
	}
	return "unknown"
}

func fields(e Entry) []*discordgo.MessageEmbedField {
	f := []*discordgo.MessageEmbedField{
		{Name: "Length", Value: FormatLength(e.LengthSeconds), Inline: true},
		{Name: "Submitted by", Value: submitter(e), Inline: true},
	}
	if e.CreatorName != "" {
		f = append(f, &discordgo.MessageEmbedField{Name: "Creator", Value: e.CreatorName, Inline: true})
	}
	return f
}

// Submission renders a firehose post awaiting votes.
func Submission(e Entry, votingWindow time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title(e),
		URL:         e.URL,
		Color:       ColorFirehose,
		Description: fmt.Sprintf("Vote within %s to send this to the showcase.", votingWindow.Round(time.Hour)),
		Fields:      fields(e),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Showcase renders a promoted video.
func Showcase(e Entry) *discordgo.MessageEmbed {
	em := &discordgo.MessageEmbed{
		Title:     title(e),
		URL:       e.URL,
		Color:     ColorShowcase,
		Fields:    fields(e),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if e.Upvotes+e.Downvotes > 0 {
		em.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("👍 %d  👎 %d", e.Upvotes, e.Downvotes)}
	}
	return em
}

// Log renders a safety-log entry. Severity is INFO, WARN or ERROR.
func Log(severity, heading, message string) *discordgo.MessageEmbed {
	color := ColorInfo
	switch severity {
	case "WARN":
		color = ColorWarn
	case "ERROR":
		color = ColorError
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("[%s] %s", severity, heading),
		Description: message,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// StandingRow is one submission in a /standing reply.
type StandingRow struct {
	Title     string
	Link      string
	Upvotes   int
	Downvotes int
	Active    bool
	CreatedAt time.Time
}

// Standing renders a user's recent submissions.
func Standing(username string, rows []StandingRow) *discordgo.MessageEmbed {
	em := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Recent submissions by %s", username),
		Color: ColorFirehose,
	}
	if len(rows) == 0 {
		em.Description = "No submissions yet."
		return em
	}

	var b strings.Builder
	for _, r := range rows {
		state := "closed"
		if r.Active {
			state = "voting"
		}
		fmt.Fprintf(&b, "[%s](%s) · 👍 %d 👎 %d · %s · <t:%d:R>\n",
			truncate(r.Title, 60), r.Link, r.Upvotes, r.Downvotes, state, r.CreatedAt.Unix())
	}
	em.Description = b.String()
	return em
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
