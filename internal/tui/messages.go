package tui

// ChatReplyMsg carries the outcome of one assistant turn.
type ChatReplyMsg struct {
	Reply string
	Err   error
}
