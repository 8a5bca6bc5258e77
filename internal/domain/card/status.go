package card

import "fmt"

// Status is the persisted workflow code of a card.
type Status string

const (
	StatusActive      Status = "A"
	StatusProvisional Status = "P"
	StatusVerified    Status = "V"
	StatusResolved    Status = "R"
)

var statusLabels = map[Status]string{
	StatusActive:      "Active",
	StatusProvisional: "Provisional",
	StatusVerified:    "Verified",
	StatusResolved:    "Resolved",
}

// OpenStatuses are the states a card can be in before it is resolved.
var OpenStatuses = []Status{StatusActive, StatusProvisional, StatusVerified}

func ParseStatus(code string) (Status, error) {
	s := Status(code)
	if _, ok := statusLabels[s]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, code)
	}
	return s, nil
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) IsOpen() bool {
	return s != StatusResolved && s != ""
}

// Stage names one of the two solution stages.
type Stage string

const (
	StageProvisional Stage = "provisional"
	StageDefinitive  Stage = "definitive"
)

// TargetStatus is the status a card moves to once the stage is applied.
func (s Stage) TargetStatus() Status {
	if s == StageDefinitive {
		return StatusResolved
	}
	return StatusProvisional
}

// CanApply checks a stage transition. alreadySet reports whether the stage's
// responsible user was recorded before; stages are first-write-wins.
func CanApply(stage Stage, current Status, alreadySet bool) error {
	if alreadySet {
		return &ValidationError{Kind: AlreadySet, Stage: stage}
	}

	switch stage {
	case StageProvisional:
		if current != StatusActive {
			return &ValidationError{
				Kind:   InvalidTransition,
				Stage:  stage,
				Detail: fmt.Sprintf("cannot apply provisional solution to a %s card", current.Label()),
			}
		}
	case StageDefinitive:
		if current != StatusActive && current != StatusProvisional && current != StatusVerified {
			return &ValidationError{
				Kind:   InvalidTransition,
				Stage:  stage,
				Detail: fmt.Sprintf("cannot apply definitive solution to a %s card", current.Label()),
			}
		}
	default:
		return &ValidationError{Kind: InvalidInput, Detail: fmt.Sprintf("unknown stage %q", stage)}
	}
	return nil
}
