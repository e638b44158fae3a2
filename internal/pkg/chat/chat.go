// Package chat is a thin chat platform client. The only implementation is
// Slack; its bot token can be swapped at runtime through Reconfigure when the
// integration settings change.
package chat

import (
	"errors"
)

var (
	// ErrNotConfigured is returned by every call while no token is set.
	ErrNotConfigured = errors.New("chat: client not configured")
	ErrUserNotFound  = errors.New("chat: user not found")
)

// Message is a rich direct message. Text is the notification fallback shown
// by clients that cannot render blocks.
type Message struct {
	Text     string
	Sections []string
	Context  []string
	Buttons  []Button
}

type Button struct {
	Text string
	URL  string
}

// Locator addresses a posted message so later replies can be threaded to it.
type Locator struct {
	ChannelID string
	Timestamp string
}

type ConnectionInfo struct {
	Team string
	Bot  string
}
