// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"fmt"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

// Card texts shown to the user.
const (
	TextNoPassword = "NO PASSWORD SAVED"
	TextRecording  = "Is Recording..."
	TextLocked     = "LOCKED"
	TextUnlocked   = "UNLOCKED"
	TextWrong      = "WRONG PASSWORD"
)

// Status is what a screen should show after an event.
type Status struct {
	Title  string
	Detail string
	// Progress in 0..1 while recording, -1 otherwise.
	Progress float64
}

// IdleStatus is shown before any event arrives.
func IdleStatus() Status {
	return Status{Title: TextNoPassword, Detail: "press to record", Progress: -1}
}

// StatusFor maps an event onto a card.
func StatusFor(e auth.Event) Status {
	switch e.Kind {
	case auth.EventEnrollStart, auth.EventEnrollProgress:
		return Status{Title: TextRecording, Detail: "new password", Progress: e.Progress()}
	case auth.EventVerifyStart, auth.EventVerifyProgress:
		return Status{Title: TextRecording, Detail: "unlock attempt", Progress: e.Progress()}
	case auth.EventTemplateReady:
		return Status{Title: TextLocked, Detail: "press to unlock", Progress: -1}
	case auth.EventAccept:
		return Status{Title: TextUnlocked, Detail: distanceLine(e), Progress: -1}
	case auth.EventReject:
		detail := distanceLine(e)
		if e.Degenerate {
			detail = "no motion"
		}
		return Status{Title: TextWrong, Detail: detail, Progress: -1}
	default:
		return IdleStatus()
	}
}

func distanceLine(e auth.Event) string {
	if e.Distances == nil {
		return ""
	}
	d := e.Distances
	return fmt.Sprintf("%s %s %s", short(d[0]), short(d[1]), short(d[2]))
}

// short keeps a distance on a 128px line; the empty-segment sentinel
// and other huge values print as "--".
func short(v float64) string {
	if v >= 1e5 {
		return "--"
	}
	return fmt.Sprintf("%.0f", v)
}
