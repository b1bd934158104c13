package chat

import "github.com/gpteach/gpteach/internal/wizard"

// replyMsg is sent when a wizard operation finishes.
type replyMsg struct {
	op    string
	reply *wizard.Reply
	err   error

	// saveErr reports a failure to persist the plan afterwards.
	saveErr error
}

// speaker tags a transcript line.
type speaker int

const (
	assistant speaker = iota
	teacher
	notice
	suggestion
)

// line is one rendered transcript entry.
type line struct {
	who   speaker
	text  string
	field string
}
