package card

import (
	"fmt"
	"strings"
)

// Actor is the user a note is attributed to.
type Actor struct {
	ID   uint64
	Name string
}

// NoteKind selects the audit note template.
type NoteKind string

const (
	NotePriorityChange      NoteKind = "priority_change"
	NoteMechanicChange      NoteKind = "mechanic_change"
	NoteProvisionalSolution NoteKind = "provisional_solution"
	NoteDefinitiveSolution  NoteKind = "definitive_solution"
)

// noteTemplates take actor name, actor id, from, to.
var noteTemplates = map[NoteKind]string{
	NotePriorityChange:      `%s (#%d) changed the priority from "%s" to "%s"`,
	NoteMechanicChange:      `%s (#%d) changed the mechanic from "%s" to "%s"`,
	NoteProvisionalSolution: `%s (#%d) applied the provisional solution, status changed from "%s" to "%s"`,
	NoteDefinitiveSolution:  `%s (#%d) applied the definitive solution, status changed from "%s" to "%s"`,
}

const emptyNoteValue = "none"

// BuildChangeNote renders the audit sentence for one change.
func BuildChangeNote(actor Actor, kind NoteKind, from string, to string) (string, error) {
	tmpl, ok := noteTemplates[kind]
	if !ok {
		return "", &ValidationError{Kind: InvalidInput, Detail: fmt.Sprintf("unknown note kind %q", kind)}
	}

	name := strings.TrimSpace(actor.Name)
	if name == "" {
		name = "unknown user"
	}
	return fmt.Sprintf(tmpl, name, actor.ID, orNone(from), orNone(to)), nil
}

func orNone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return emptyNoteValue
	}
	return value
}
