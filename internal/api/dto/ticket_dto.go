package dto

import (
	"strings"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// TicketInput is the wire form of a ticket create/update request. Only title
// and user text come from the client; id selects the ticket to update.
type TicketInput struct {
	ID       *int64 `json:"id"`
	Title    string `json:"title" validate:"required,notblank,max=255"`
	UserText string `json:"userText" validate:"required,notblank"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *TicketInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.UserText = strings.TrimSpace(in.UserText)
}

// Validate normalizes and validates the input.
func (in *TicketInput) Validate() error {
	in.Normalize()
	return Validate(in)
}

// IsUpdate reports whether the input targets an existing ticket.
func (in *TicketInput) IsUpdate() bool {
	return in.ID != nil
}

// ToTicket builds a new ticket owned by ownerID.
func (in *TicketInput) ToTicket(ownerID int64) *domain.Ticket {
	return &domain.Ticket{
		OwnerID:  ownerID,
		Title:    in.Title,
		UserText: in.UserText,
	}
}

// ApplyTo copies the client-editable fields onto an existing ticket.
func (in *TicketInput) ApplyTo(ticket *domain.Ticket) {
	ticket.Title = in.Title
	ticket.UserText = in.UserText
}

// TicketAnswerInput is the support-side reply.
type TicketAnswerInput struct {
	TicketID int64  `json:"ticketId" validate:"gt=0"`
	Answer   string `json:"answer" validate:"required,notblank"`
}

// Validate normalizes and validates the input.
func (in *TicketAnswerInput) Validate() error {
	in.Answer = strings.TrimSpace(in.Answer)
	return Validate(in)
}
