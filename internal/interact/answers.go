package interact

import "strings"

// Control is a free-text control word recognized inside interactive flows.
type Control int

const (
	NoControl Control = iota
	Exit
	Undo
	Help
	Aliases
)

var controls = map[string]Control{
	"exit":    Exit,
	"back":    Undo,
	"b":       Undo,
	"return":  Undo,
	"undo":    Undo,
	"help":    Help,
	"alias":   Aliases,
	"aliases": Aliases,
}

// ParseControl matches trimmed, case-insensitive input against the control
// words.
func ParseControl(input string) Control {
	return controls[normalize(input)]
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
