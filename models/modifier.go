package models

import "time"

// Flag is the direction of a modifier.
type Flag string

const (
	FlagAllow Flag = "allow"
	FlagDeny  Flag = "deny"
)

// TargetKind discriminates TargetRef.
type TargetKind string

const (
	TargetUser    TargetKind = "user"
	TargetCreator TargetKind = "creator"
)

// TargetRef points at the thing a modifier applies to.
type TargetRef struct {
	Kind TargetKind
	ID   int64
}

// UserTarget refers to a User row.
func UserTarget(id int64) TargetRef { return TargetRef{Kind: TargetUser, ID: id} }

// CreatorTarget refers to a Creator row.
func CreatorTarget(id int64) TargetRef { return TargetRef{Kind: TargetCreator, ID: id} }

// Modifier is an allow/deny flag on a user or creator.
type Modifier struct {
	ID          int64      `db:"id"`
	TargetType  TargetKind `db:"target_type"`
	TargetID    int64      `db:"target_id"`
	Flag        Flag       `db:"flag"`
	Reason      string     `db:"reason"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedByID *int64     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Target returns the modifier's target reference.
func (m Modifier) Target() TargetRef {
	return TargetRef{Kind: m.TargetType, ID: m.TargetID}
}

// ActiveAt reports whether the modifier has no expiry or expires after now.
func (m Modifier) ActiveAt(now time.Time) bool {
	return m.ExpiresAt == nil || m.ExpiresAt.After(now)
}
