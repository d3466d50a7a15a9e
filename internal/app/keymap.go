package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyEnter     = "enter"
	KeySearch    = "/"
	KeyRhythm    = "f"
	KeyBook      = "b"
	KeyStats     = "s"
	KeyImport    = "r"
)
