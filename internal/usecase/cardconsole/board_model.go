package cardconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
	"cardtrack/internal/usecase/card"
)

const maxShownNotes = 4

// CardReader is the slice of the card service the board reads from.
type CardReader interface {
	ListBySite(ctx context.Context, siteID uint64) ([]ports.Card, error)
	GetByIDWithEvidences(ctx context.Context, cardID uint64) (card.CardWithEvidences, error)
	ListNotes(ctx context.Context, cardID uint64) ([]ports.CardNote, error)
}

type BoardOptions struct {
	SiteID          uint64
	OpenOnly        bool
	RefreshInterval time.Duration
}

type boardModel struct {
	ctx             context.Context
	reader          CardReader
	siteID          uint64
	openOnly        bool
	refreshInterval time.Duration

	cards         []ports.Card
	selectedIndex int
	detail        card.CardWithEvidences
	notes         []ports.CardNote
	hasDetail     bool
	status        string
}

type cardsLoadedMsg struct {
	items []ports.Card
	err   error
}

type cardDetailLoadedMsg struct {
	cardID uint64
	detail card.CardWithEvidences
	notes  []ports.CardNote
	err    error
}

type tickMsg struct{}

func NewBoardModel(ctx context.Context, reader CardReader, options BoardOptions) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &boardModel{
		ctx:             logging.WithAttrs(ctx, slog.String("component", "usecase.cardconsole")),
		reader:          reader,
		siteID:          options.SiteID,
		openOnly:        options.OpenOnly,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *boardModel) Init() tea.Cmd {
	return tea.Batch(m.loadCardsCmd(), m.tickCmd())
}

func (m *boardModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadCardsCmd(), m.tickCmd())
	case cardsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.cards = filterCards(msg.items, m.openOnly)
		if len(m.cards) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no cards"
			return m, nil
		}
		if m.selectedIndex >= len(m.cards) {
			m.selectedIndex = len(m.cards) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d card(s)", len(m.cards))
		return m, m.loadSelectedDetailCmd()
	case cardDetailLoadedMsg:
		selected, ok := m.selectedCard()
		if !ok || selected.CardID != msg.cardID {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.notes = msg.notes
		m.hasDetail = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadCardsCmd()
		case "o":
			m.openOnly = !m.openOnly
			m.selectedIndex = 0
			return m, m.loadCardsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.cards)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	scope := "all"
	if m.openOnly {
		scope = "open"
	}

	var builder strings.Builder
	builder.WriteString(titleStyle.Render(fmt.Sprintf("Card Board site=%d", m.siteID)))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf("scope=%s refresh=%s", scope, m.refreshInterval)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Cards"))
	builder.WriteString("\n")
	if len(m.cards) == 0 {
		builder.WriteString(dimStyle.Render("- no cards"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.cards {
			line := fmt.Sprintf(
				"#%d [%s] %s/%s location=%s due=%s",
				item.SiteCardID,
				item.Status.Label(),
				item.CardTypeName,
				item.PreclassifierCode,
				item.Location,
				item.DueDate,
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		c := m.detail.Card
		builder.WriteString(fmt.Sprintf("Card: #%d uuid=%s\n", c.SiteCardID, c.CardUUID))
		builder.WriteString(fmt.Sprintf("Status: %s\n", c.Status.Label()))
		builder.WriteString(fmt.Sprintf("Creator: %s\n", c.CreatorName))
		builder.WriteString(fmt.Sprintf("Responsible: %s\n", derefOr(c.ResponsibleName, "-")))
		builder.WriteString(fmt.Sprintf("Mechanic: %s\n", derefOr(c.MechanicName, "-")))
		builder.WriteString(fmt.Sprintf("Priority: %s\n", derefOr(c.PriorityDescription, "-")))
		builder.WriteString(fmt.Sprintf("Evidences: %d\n", len(m.detail.Evidences)))
		builder.WriteString("\nRecent Notes:\n")
		if len(m.notes) == 0 {
			builder.WriteString("- none\n")
		} else {
			shown := m.notes
			if len(shown) > maxShownNotes {
				shown = shown[:maxShownNotes]
			}
			for _, note := range shown {
				builder.WriteString(fmt.Sprintf("- %s %s\n", note.CreatedAt, note.Note))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + m.status)
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  o open/all  q quit"))
	return builder.String()
}

func (m *boardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *boardModel) loadCardsCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.reader.ListBySite(m.ctx, m.siteID)
		if err != nil {
			logging.Warn(m.ctx, "board refresh failed", slog.Any("err", errs.Loggable(err)))
			return cardsLoadedMsg{err: err}
		}
		return cardsLoadedMsg{items: items}
	}
}

func (m *boardModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedCard()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.reader.GetByIDWithEvidences(m.ctx, selected.CardID)
		if err != nil {
			return cardDetailLoadedMsg{cardID: selected.CardID, err: err}
		}
		notes, err := m.reader.ListNotes(m.ctx, selected.CardID)
		if err != nil {
			return cardDetailLoadedMsg{cardID: selected.CardID, err: err}
		}
		return cardDetailLoadedMsg{cardID: selected.CardID, detail: detail, notes: notes}
	}
}

func (m *boardModel) selectedCard() (ports.Card, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.cards) {
		return ports.Card{}, false
	}
	return m.cards[m.selectedIndex], true
}

func filterCards(items []ports.Card, openOnly bool) []ports.Card {
	if !openOnly {
		return items
	}
	out := make([]ports.Card, 0, len(items))
	for _, item := range items {
		if item.Status.IsOpen() {
			out = append(out, item)
		}
	}
	return out
}

func derefOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}
