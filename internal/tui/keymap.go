package tui

// Key binding constants used in handleKey.
const (
	KeyCtrlC    = "ctrl+c"
	KeyQuit     = "q"
	KeyEsc      = "esc"
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyEnter    = "enter"
	KeyReset    = "ctrl+r"
)
