package card

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCoversEveryTag(t *testing.T) {
	types := EvidenceTypes()
	require.Len(t, types, int(slotCount))

	seen := make(map[EvidenceSlot]bool)
	for _, tag := range types {
		slot, ok := Classify(string(tag))
		require.Truef(t, ok, "tag %s not classified", tag)
		assert.Falsef(t, seen[slot], "slot %d mapped twice", slot)
		seen[slot] = true
	}
}

func TestFoldEvidenceSetsOnlyMatchingFlag(t *testing.T) {
	var prior EvidenceFlags
	prior[SlotImageClosing] = true

	next := FoldEvidence(prior, []string{"AUCR"})

	for slot := EvidenceSlot(0); slot < slotCount; slot++ {
		switch slot {
		case SlotAudioCreation, SlotImageClosing:
			assert.Truef(t, next.Has(slot), "slot %d should be set", slot)
		default:
			assert.Falsef(t, next.Has(slot), "slot %d should be clear", slot)
		}
	}
	assert.False(t, prior.Has(SlotAudioCreation), "prior must not be mutated")
}

func TestFoldEvidenceIgnoresUnknownTags(t *testing.T) {
	var prior EvidenceFlags
	next := FoldEvidence(prior, []string{"DOCX", "", "aucr"})
	assert.Equal(t, prior, next)
}

func TestFoldEvidenceIsMonotonic(t *testing.T) {
	var prior EvidenceFlags
	prior[SlotVideoProvisional] = true
	next := FoldEvidence(prior, []string{"IMPS"})
	assert.True(t, next.Has(SlotVideoProvisional))
	assert.True(t, next.Has(SlotImageProvisional))
	assert.Equal(t, next, next.Merge(prior))
}

func threeLevelSite() map[uint64]Node {
	return map[uint64]Node{
		1: {ID: 1, SuperiorID: 0, Name: "Packing"},
		2: {ID: 2, SuperiorID: 1, Name: "Line 3"},
		3: {ID: 3, SuperiorID: 2, Name: "Sealer"},
		9: {ID: 9, SuperiorID: 0, Name: "Warehouse"},
	}
}

func TestResolveThreeLevelChain(t *testing.T) {
	res, err := Resolve(3, threeLevelSite())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), res.Area.ID)
	assert.Equal(t, "Packing", res.Area.Name)
	assert.Equal(t, "Sealer", res.Leaf.Name)
	assert.Equal(t, "Packing / Line 3 / Sealer", res.Location)
	assert.Equal(t, 3, res.Depth)
	assert.Equal(t, uint64(2), res.SuperiorID)
}

func TestResolveRootNodeIsItsOwnArea(t *testing.T) {
	res, err := Resolve(9, threeLevelSite())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), res.Area.ID)
	assert.Equal(t, uint64(9), res.SuperiorID)
	assert.Equal(t, "Warehouse", res.Location)
	assert.Equal(t, 1, res.Depth)
}

func TestResolveDetectsCycle(t *testing.T) {
	nodes := map[uint64]Node{
		4: {ID: 4, SuperiorID: 5, Name: "A"},
		5: {ID: 5, SuperiorID: 6, Name: "B"},
		6: {ID: 6, SuperiorID: 4, Name: "C"},
	}
	_, err := Resolve(4, nodes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, uint64(4), re.NodeID)
}

func TestResolveSelfParentIsCycle(t *testing.T) {
	_, err := Resolve(7, map[uint64]Node{7: {ID: 7, SuperiorID: 7, Name: "Loop"}})
	assert.ErrorIs(t, err, ErrResolution)
}

func TestResolveMissingNodes(t *testing.T) {
	_, err := Resolve(42, threeLevelSite())
	assert.ErrorIs(t, err, ErrResolution)

	_, err = Resolve(2, map[uint64]Node{2: {ID: 2, SuperiorID: 1, Name: "Orphan"}})
	assert.ErrorIs(t, err, ErrResolution)
}

func TestBuildChangeNote(t *testing.T) {
	note, err := BuildChangeNote(Actor{ID: 12, Name: "Ana Ruiz"}, NotePriorityChange, "High", "Low")
	require.NoError(t, err)
	assert.Equal(t, `Ana Ruiz (#12) changed the priority from "High" to "Low"`, note)

	note, err = BuildChangeNote(Actor{ID: 3, Name: "Leo"}, NoteMechanicChange, "", "Max")
	require.NoError(t, err)
	assert.Equal(t, `Leo (#3) changed the mechanic from "none" to "Max"`, note)

	_, err = BuildChangeNote(Actor{ID: 1}, NoteKind("other"), "a", "b")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAccumulateRunningTotals(t *testing.T) {
	points := Accumulate([]WeeklyCount{
		{Year: 2024, Week: 2, Issued: 2, Eradicated: 4},
		{Year: 2024, Week: 1, Issued: 3, Eradicated: 1},
	})
	require.Len(t, points, 2)

	assert.Equal(t, 1, points[0].Week)
	assert.Equal(t, 3, points[0].CumulativeIssued)
	assert.Equal(t, 1, points[0].CumulativeEradicated)

	assert.Equal(t, 2, points[1].Week)
	assert.Equal(t, 5, points[1].CumulativeIssued)
	assert.Equal(t, 5, points[1].CumulativeEradicated)
}

func TestAccumulateOrdersAcrossYearsAndMergesDuplicates(t *testing.T) {
	points := Accumulate([]WeeklyCount{
		{Year: 2025, Week: 1, Issued: 1},
		{Year: 2024, Week: 52, Issued: 2},
		{Year: 2025, Week: 1, Eradicated: 2},
	})
	require.Len(t, points, 2)
	assert.Equal(t, 2024, points[0].Year)
	assert.Equal(t, 1, points[1].Issued)
	assert.Equal(t, 2, points[1].Eradicated)
	assert.Equal(t, 3, points[1].CumulativeIssued)
	assert.Empty(t, Accumulate(nil))
}

func TestCanApply(t *testing.T) {
	require.NoError(t, CanApply(StageProvisional, StatusActive, false))
	require.NoError(t, CanApply(StageDefinitive, StatusProvisional, false))
	require.NoError(t, CanApply(StageDefinitive, StatusActive, false))

	err := CanApply(StageProvisional, StatusActive, true)
	assert.ErrorIs(t, err, ErrAlreadySet)
	assert.ErrorIs(t, err, ErrValidation)

	err = CanApply(StageProvisional, StatusResolved, false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, InvalidTransition, ve.Kind)
}

func TestErrorTaxonomy(t *testing.T) {
	err := NotFound(KindPreclassifier, uint64(5))
	assert.ErrorIs(t, err, ErrNotFound)
	kind, ok := NotFoundKind(err)
	assert.True(t, ok)
	assert.Equal(t, KindPreclassifier, kind)
	assert.Equal(t, "preclassifier 5 not found", err.Error())

	dup := &ValidationError{Kind: DuplicateCorrelationID, Detail: "abc"}
	assert.ErrorIs(t, dup, ErrDuplicateCorrelationID)
	assert.NotErrorIs(t, dup, ErrAlreadySet)
}

func TestStatus(t *testing.T) {
	s, err := ParseStatus("P")
	require.NoError(t, err)
	assert.Equal(t, "Provisional", s.Label())
	assert.True(t, s.IsOpen())
	assert.False(t, StatusResolved.IsOpen())

	_, err = ParseStatus("X")
	assert.ErrorIs(t, err, ErrValidation)
}
