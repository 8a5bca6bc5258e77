package card

import "strings"

// EvidenceType is the intake tag of an evidence attachment: medium (AU, VI, IM)
// followed by stage (CR creation, CL closing, PS provisional solution).
type EvidenceType string

const (
	EvidenceAudioCreation    EvidenceType = "AUCR"
	EvidenceVideoCreation    EvidenceType = "VICR"
	EvidenceImageCreation    EvidenceType = "IMCR"
	EvidenceAudioClosing     EvidenceType = "AUCL"
	EvidenceVideoClosing     EvidenceType = "VICL"
	EvidenceImageClosing     EvidenceType = "IMCL"
	EvidenceAudioProvisional EvidenceType = "AUPS"
	EvidenceVideoProvisional EvidenceType = "VIPS"
	EvidenceImageProvisional EvidenceType = "IMPS"
)

// EvidenceSlot indexes one of the nine evidence-presence flags on a card.
type EvidenceSlot int

const (
	SlotAudioCreation EvidenceSlot = iota
	SlotVideoCreation
	SlotImageCreation
	SlotAudioClosing
	SlotVideoClosing
	SlotImageClosing
	SlotAudioProvisional
	SlotVideoProvisional
	SlotImageProvisional

	slotCount
)

var evidenceSlots = map[EvidenceType]EvidenceSlot{
	EvidenceAudioCreation:    SlotAudioCreation,
	EvidenceVideoCreation:    SlotVideoCreation,
	EvidenceImageCreation:    SlotImageCreation,
	EvidenceAudioClosing:     SlotAudioClosing,
	EvidenceVideoClosing:     SlotVideoClosing,
	EvidenceImageClosing:     SlotImageClosing,
	EvidenceAudioProvisional: SlotAudioProvisional,
	EvidenceVideoProvisional: SlotVideoProvisional,
	EvidenceImageProvisional: SlotImageProvisional,
}

// EvidenceTypes lists every recognised tag in slot order.
func EvidenceTypes() []EvidenceType {
	out := make([]EvidenceType, slotCount)
	for tag, slot := range evidenceSlots {
		out[slot] = tag
	}
	return out
}

// Classify maps a tag to its flag slot. Unknown tags report ok=false; callers
// still persist the raw evidence row for them.
func Classify(tag string) (EvidenceSlot, bool) {
	slot, ok := evidenceSlots[EvidenceType(strings.TrimSpace(tag))]
	return slot, ok
}

// EvidenceFlags holds the nine presence flags. Flags only ever go from false to true.
type EvidenceFlags [slotCount]bool

func (f EvidenceFlags) Has(slot EvidenceSlot) bool {
	if slot < 0 || slot >= slotCount {
		return false
	}
	return f[slot]
}

// Merge returns the union of f and other.
func (f EvidenceFlags) Merge(other EvidenceFlags) EvidenceFlags {
	for i := range f {
		f[i] = f[i] || other[i]
	}
	return f
}

// FoldEvidence folds a batch of tags into prior without mutating it.
func FoldEvidence(prior EvidenceFlags, tags []string) EvidenceFlags {
	next := prior
	for _, tag := range tags {
		if slot, ok := Classify(tag); ok {
			next[slot] = true
		}
	}
	return next
}

// EvidenceInput is one submitted attachment.
type EvidenceInput struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

func EvidenceTags(items []EvidenceInput) []string {
	tags := make([]string, 0, len(items))
	for _, item := range items {
		tags = append(tags, item.Type)
	}
	return tags
}
