package wcs

import "fmt"

// Level grades a construction diagnostic.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "info"
}

// Diagnostic is one entry of the trail recorded while a Model is built.
type Diagnostic struct {
	Level   Level
	Message string
}

func (d Diagnostic) String() string {
	return d.Level.String() + ": " + d.Message
}

func (m *Model) infof(format string, args ...any) {
	m.diags = append(m.diags, Diagnostic{Level: LevelInfo, Message: fmt.Sprintf(format, args...)})
}

func (m *Model) warnf(format string, args ...any) {
	m.diags = append(m.diags, Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns the construction trail in the order it was recorded.
func (m *Model) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(m.diags))
	copy(out, m.diags)
	return out
}
