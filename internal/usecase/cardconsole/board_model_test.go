package cardconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/ports"
	"cardtrack/internal/usecase/card"
)

type fakeReader struct {
	cards   []ports.Card
	notes   map[uint64][]ports.CardNote
	listErr error
}

func (f *fakeReader) ListBySite(_ context.Context, _ uint64) ([]ports.Card, error) {
	return f.cards, f.listErr
}

func (f *fakeReader) GetByIDWithEvidences(_ context.Context, cardID uint64) (card.CardWithEvidences, error) {
	for _, c := range f.cards {
		if c.CardID == cardID {
			return card.CardWithEvidences{Card: c, Evidences: []ports.Evidence{}}, nil
		}
	}
	return card.CardWithEvidences{}, domaincard.NotFound(domaincard.KindCard, cardID)
}

func (f *fakeReader) ListNotes(_ context.Context, cardID uint64) ([]ports.CardNote, error) {
	return f.notes[cardID], nil
}

func boardCards() []ports.Card {
	return []ports.Card{
		{CardID: 1, SiteCardID: 1, Status: domaincard.StatusActive, CardTypeName: "Anomaly", PreclassifierCode: "LK", Location: "Area A"},
		{CardID: 2, SiteCardID: 2, Status: domaincard.StatusResolved, CardTypeName: "Anomaly", PreclassifierCode: "DS", Location: "Area B"},
		{CardID: 3, SiteCardID: 3, Status: domaincard.StatusProvisional, CardTypeName: "Safety", PreclassifierCode: "LK", Location: "Area A"},
	}
}

func newBoard(t *testing.T, reader *fakeReader, openOnly bool) *boardModel {
	t.Helper()
	model := NewBoardModel(context.Background(), reader, BoardOptions{SiteID: 1, OpenOnly: openOnly})
	board, ok := model.(*boardModel)
	if !ok {
		t.Fatalf("NewBoardModel() type = %T", model)
	}
	return board
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *boardModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected command")
	}
	m.Update(cmd())
}

func TestBoardLoadsCardsAndSelectedDetail(t *testing.T) {
	reader := &fakeReader{
		cards: boardCards(),
		notes: map[uint64][]ports.CardNote{1: {{NoteID: 1, CardID: 1, Note: "priority changed"}}},
	}
	m := newBoard(t, reader, false)

	_, cmd := m.Update(m.loadCardsCmd()())
	if len(m.cards) != 3 {
		t.Fatalf("len(cards) = %d, want 3", len(m.cards))
	}
	run(t, m, cmd)
	if !m.hasDetail || m.detail.Card.CardID != 1 {
		t.Fatalf("detail = %+v (has=%v), want card 1", m.detail.Card, m.hasDetail)
	}

	view := m.View()
	for _, want := range []string{"Card Board site=1", "#1 [Active]", "#2 [Resolved]", "priority changed"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBoardOpenOnlyHidesResolved(t *testing.T) {
	m := newBoard(t, &fakeReader{cards: boardCards()}, true)

	m.Update(m.loadCardsCmd()())
	if len(m.cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2", len(m.cards))
	}
	for _, c := range m.cards {
		if c.Status == domaincard.StatusResolved {
			t.Fatalf("resolved card %d shown in open scope", c.CardID)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if m.openOnly {
		t.Fatalf("openOnly = true after toggle")
	}
	run(t, m, cmd)
	if len(m.cards) != 3 {
		t.Fatalf("len(cards) = %d after toggle, want 3", len(m.cards))
	}
}

func TestBoardMovesSelectionAndIgnoresStaleDetail(t *testing.T) {
	m := newBoard(t, &fakeReader{cards: boardCards()}, false)
	m.Update(m.loadCardsCmd()())

	staleCmd := m.loadSelectedDetailCmd()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", m.selectedIndex)
	}
	run(t, m, cmd)
	if m.detail.Card.CardID != 2 {
		t.Fatalf("detail card = %d, want 2", m.detail.Card.CardID)
	}

	m.Update(staleCmd())
	if m.detail.Card.CardID != 2 {
		t.Fatalf("stale detail replaced selection: card = %d", m.detail.Card.CardID)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.selectedIndex != 0 {
		t.Fatalf("selectedIndex = %d, want 0", m.selectedIndex)
	}
}

func TestBoardRefreshErrorKeepsCards(t *testing.T) {
	reader := &fakeReader{cards: boardCards()}
	m := newBoard(t, reader, false)
	m.Update(m.loadCardsCmd()())

	reader.listErr = errors.New("database is locked")
	m.Update(m.loadCardsCmd()())
	if len(m.cards) != 3 {
		t.Fatalf("len(cards) = %d, want previous 3", len(m.cards))
	}
	if !strings.Contains(m.status, "database is locked") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestBoardEmptySite(t *testing.T) {
	m := newBoard(t, &fakeReader{}, false)
	_, cmd := m.Update(m.loadCardsCmd()())
	if cmd != nil {
		t.Fatalf("expected no detail command for empty board")
	}
	if m.status != "no cards" || m.hasDetail {
		t.Fatalf("status = %q hasDetail = %v", m.status, m.hasDetail)
	}
	if !strings.Contains(m.View(), "- no cards") {
		t.Fatalf("view missing empty marker")
	}
}
