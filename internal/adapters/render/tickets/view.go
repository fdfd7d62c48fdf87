package tickets

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/ctix/internal/application"
	"github.com/bnema/ctix/internal/domain"
	"github.com/charmbracelet/lipgloss"
	qrcode "github.com/skip2/go-qrcode"
)

const availabilityBarWidth = 24

// Page is everything a single render can show. Nil sections are skipped.
type Page struct {
	Session *application.SessionView
	Event   *application.EventView
	Tickets []application.TicketCard
	Detail  *application.TicketDetail
	Notices []string
}

type RenderOptions struct {
	// ShowTickets renders the ticket list even when it is empty.
	ShowTickets bool
	// Selected highlights a card in the ticket list. Zero selects nothing.
	Selected domain.TicketID
	// HideQR drops the QR block from the detail view.
	HideQR bool
}

// View renders page without going through a bubbletea program.
func View(page Page, opts RenderOptions) string {
	return renderView(page, opts, newStyles())
}

func renderView(page Page, opts RenderOptions, s styles) string {
	lines := make([]string, 0, 5)

	if page.Session != nil {
		lines = append(lines, renderSession(*page.Session, s))
	}
	if page.Event != nil {
		lines = append(lines, s.section.Render(renderEvent(*page.Event, s)))
	}
	if opts.ShowTickets || len(page.Tickets) > 0 {
		lines = append(lines, s.section.Render(renderTicketList(page.Tickets, opts.Selected, s)))
	}
	if page.Detail != nil {
		lines = append(lines, s.section.Render(renderDetail(*page.Detail, opts, s)))
	}
	for _, notice := range page.Notices {
		lines = append(lines, s.notice.Render(notice))
	}

	if len(lines) == 0 {
		return s.empty.Render("Nothing to show.")
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(view application.SessionView, s styles) string {
	if !view.Account.IsZero() && !view.Connected {
		return s.header.Render("Connecting " + view.Account.Short() + "...")
	}
	if !view.Connected {
		return s.warning.Render("Wallet not connected")
	}

	parts := []string{
		s.account.Render(view.Account.Short()),
		s.header.Render(fmt.Sprintf("chain %d", view.ChainID)),
	}
	if view.IsOwner {
		parts = append(parts, s.owner.Render("organizer"))
	}

	return strings.Join(parts, " ")
}

func renderEvent(view application.EventView, s styles) string {
	lines := []string{
		s.title.Render(view.Name),
		s.detail.Render(fmt.Sprintf("%s · %s", view.Date, view.Venue)),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render("available: "),
			renderAvailabilityBar(view, availabilityBarWidth, s),
			" ",
			s.detail.Render(view.Availability),
		),
		s.key.Render("price: ") + s.detail.Render(view.PriceEther+" ETH"),
	}
	if view.SoldOut {
		lines = append(lines, s.warning.Render("Sold out"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAvailabilityBar(view application.EventView, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := 0
	if view.MaxSupply > 0 {
		filled = int(math.Round(float64(width) * float64(view.Remaining) / float64(view.MaxSupply)))
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func renderTicketList(cards []application.TicketCard, selected domain.TicketID, s styles) string {
	lines := []string{s.header.Render(fmt.Sprintf("my tickets: %d", len(cards)))}
	if len(cards) == 0 {
		lines = append(lines, s.empty.Render("You don't own any tickets yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, card := range cards {
		marker := "  "
		title := s.detail.Render(card.Title)
		if selected != 0 && card.ID == selected {
			marker = s.selected.Render("> ")
			title = s.selected.Render(card.Title)
		}
		lines = append(lines, marker+title+" "+statusBadge(card.Status, card.Used, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDetail(detail application.TicketDetail, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(detail.Title) + " " + statusBadge(detail.Status, detail.Used, s),
		s.key.Render("event: ") + s.detail.Render(detail.EventName),
		s.key.Render("date:  ") + s.detail.Render(detail.EventDate),
		s.key.Render("venue: ") + s.detail.Render(detail.EventVenue),
		s.key.Render("actions: ") + s.detail.Render(actionsLabel(detail)),
	}

	if !opts.HideQR {
		if code, err := QRCode(detail.QRPayload); err == nil {
			lines = append(lines, s.qr.Render(code))
		} else {
			lines = append(lines, s.warning.Render("QR unavailable: "+err.Error()))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusBadge(status string, used bool, s styles) string {
	if used {
		return s.used.Render("[" + status + "]")
	}
	return s.valid.Render("[" + status + "]")
}

func actionsLabel(detail application.TicketDetail) string {
	actions := make([]string, 0, 2)
	if detail.CanMarkUsed {
		actions = append(actions, "mark used")
	}
	if detail.CanTransfer {
		actions = append(actions, "transfer")
	}
	if len(actions) == 0 {
		return "none"
	}
	return strings.Join(actions, ", ")
}

// QRCode renders payload as a terminal QR block.
func QRCode(payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("empty qr payload")
	}

	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	return strings.TrimRight(code.ToSmallString(false), "\n"), nil
}
