package policy

import (
	"time"

	"showcase-bot/models"
	"showcase-bot/videoref"
)

// Effect is a side effect the pipeline asks the transport adapter to apply.
type Effect interface {
	effect()
}

// Severity grades safety-log entries.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// DeleteMessage removes the user's original chat message.
type DeleteMessage struct {
	ChannelID string
	MessageID string
}

// Notify tells the submitter the outcome privately: a direct message for
// chat submissions, an ephemeral reply for slash commands.
type Notify struct {
	UserID  string
	Message string
}

// SafetyLog records an entry in the guild's safety-log channel.
type SafetyLog struct {
	GuildID  string
	Severity Severity
	Title    string
	Message  string
}

// ApplyModifier creates an allow/deny modifier, replacing any active one.
type ApplyModifier struct {
	Target   models.TargetRef
	Flag     models.Flag
	Reason   string
	Duration time.Duration
}

// RequestDuration asks the submitter to supply the video length manually.
type RequestDuration struct {
	UserID    string
	Reference videoref.Reference
}

// ConfirmTimestamp asks the submitter whether to keep the link's start time.
type ConfirmTimestamp struct {
	UserID    string
	Reference videoref.Reference
}

// PostSubmission posts the accepted video to the firehose channel, adds the
// vote reactions and records the VideoSubmission.
type PostSubmission struct {
	GuildID   string
	ChannelID string
	User      models.User
	Video     models.Video
	Creator   *models.Creator
	URL       string
}

func (DeleteMessage) effect()    {}
func (Notify) effect()           {}
func (SafetyLog) effect()        {}
func (ApplyModifier) effect()    {}
func (RequestDuration) effect()  {}
func (ConfirmTimestamp) effect() {}
func (PostSubmission) effect()   {}
