package tui

// Keybinding constants
const (
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyQuit     = "q"
	KeyCtrlC    = "ctrl+c"
	KeyPane1    = "1"
	KeyPane2    = "2"
	KeyReport   = "r"
	KeyUp       = "up"
	KeyDown     = "down"
	KeyJ        = "j"
	KeyK        = "k"
)

// HelpView returns a one-line help bar with common keybindings.
func HelpView(done bool) string {
	if done {
		return StyleHelp.Render("Tab: cycle focus | j/k: select task | r: toggle report | q: quit")
	}
	return StyleHelp.Render("Tab: cycle focus | j/k: select task | pgup/pgdn: scroll | ctrl+c: cancel run")
}
