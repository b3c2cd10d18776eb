package domain

// ParsedCommand is one tokenized and syntax-checked command line.
type ParsedCommand struct {
	Name   string
	Coords []Coordinate
	// Params keeps the last value seen for each key.
	Params map[string]string
	// Raw is the trimmed input line, kept for diagnostics.
	Raw string
}

// Param returns a parameter value; empty values count as absent.
func (p ParsedCommand) Param(key string) (string, bool) {
	v, ok := p.Params[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
