package entity

import (
	"errors"
	"time"
)

const LockReason = "This preference has been locked by an administrator"

var ErrPreferenceLocked = errors.New(LockReason)

// Flags holds the per channel switches of one preference.
type Flags struct {
	InApp bool
	Email bool
	Chat  bool
}

func (f Flags) Enabled(ch Channel) bool {
	switch ch {
	case ChannelInApp:
		return f.InApp
	case ChannelEmail:
		return f.Email
	case ChannelChat:
		return f.Chat
	default:
		return false
	}
}

// With returns a copy of f with ch switched to enabled.
func (f Flags) With(ch Channel, enabled bool) Flags {
	switch ch {
	case ChannelInApp:
		f.InApp = enabled
	case ChannelEmail:
		f.Email = enabled
	case ChannelChat:
		f.Chat = enabled
	}
	return f
}

type Preference struct {
	UserID   int64
	Type     EventType
	Flags    Flags
	IsLocked bool
	LockedBy *int64
	LockedAt *time.Time
}

// ResolvedPreference is the effective setting of one (recipient, type).
type ResolvedPreference struct {
	Type   EventType
	Flags  Flags
	Locked bool
	Stored bool
}

type PreferenceRow struct {
	Type          EventType
	Label         string
	Flags         Flags
	Locked        bool
	LockedBy      *int64
	LockedAt      *time.Time
	ChatConnected bool
}

type ChannelChange struct {
	Type    EventType
	Channel Channel
	Enabled bool
}
