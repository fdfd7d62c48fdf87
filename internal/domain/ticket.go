package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type TicketID uint64

func ParseTicketID(raw string) (TicketID, error) {
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ticket id %q", ErrInvalidInput, raw)
	}
	return TicketID(value), nil
}

func (id TicketID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Ticket is a read-only projection of contract state for one token. Used is
// only ever set from a gateway read.
type Ticket struct {
	ID         TicketID
	EventName  string
	EventDate  string
	EventVenue string
	Used       bool
}

type TicketMetadata struct {
	EventName  string
	EventDate  string
	EventVenue string
}

const (
	dateLabel  = ", Date: "
	venueLabel = ", Venue: "
)

// ParseTicketMetadata splits the contract's "Event: X, Date: Y, Venue: Z"
// metadata string. Dates may contain commas, so the labels are located first;
// unlabelled strings fall back to a plain three-way split.
func ParseTicketMetadata(raw string) TicketMetadata {
	dateAt := strings.Index(raw, dateLabel)
	venueAt := strings.LastIndex(raw, venueLabel)
	if dateAt >= 0 && venueAt > dateAt {
		return TicketMetadata{
			EventName:  strings.TrimSpace(strings.TrimPrefix(raw[:dateAt], "Event: ")),
			EventDate:  strings.TrimSpace(raw[dateAt+len(dateLabel) : venueAt]),
			EventVenue: strings.TrimSpace(raw[venueAt+len(venueLabel):]),
		}
	}

	parts := strings.SplitN(raw, ", ", 3)
	field := func(i int, label string) string {
		if i >= len(parts) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(parts[i], label))
	}

	return TicketMetadata{
		EventName:  field(0, "Event: "),
		EventDate:  field(1, "Date: "),
		EventVenue: field(2, "Venue: "),
	}
}

func NewTicket(id TicketID, metadata string, used bool) Ticket {
	meta := ParseTicketMetadata(metadata)
	return Ticket{
		ID:         id,
		EventName:  meta.EventName,
		EventDate:  meta.EventDate,
		EventVenue: meta.EventVenue,
		Used:       used,
	}
}

func (t Ticket) StatusLabel() string {
	if t.Used {
		return "Used"
	}
	return "Valid"
}
