package usecase

import (
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

type emailTiming int

const (
	emailOff emailTiming = iota
	emailImmediate
	emailDigest
)

// routing is the per channel plan for one event.
type routing struct {
	inApp bool
	email emailTiming
	chat  bool
}

// route applies the priority matrix to the resolved flags:
//
//	critical, high: every enabled channel is immediate
//	normal:         email goes to the digest
//	low:            email goes to the digest and chat is off
func route(p entity.Priority, f entity.Flags) routing {
	r := routing{inApp: f.InApp, chat: f.Chat}

	if f.Email {
		switch p {
		case entity.PriorityCritical, entity.PriorityHigh:
			r.email = emailImmediate
		default:
			r.email = emailDigest
		}
	}

	if p == entity.PriorityLow {
		r.chat = false
	}

	return r
}

// shouldBatchChat reports whether the chat message joins a project batch
// instead of going out immediately. Only project work that is explicitly
// not ad hoc or support is batched.
func shouldBatchChat(evt entity.Event) bool {
	if evt.Metadata.GetString(entity.MetaProjectID) == "" || evt.Entity.ID == "" {
		return false
	}
	return !evt.Metadata.GetBoolOr(entity.MetaIsAdHocOrSupport, true)
}
