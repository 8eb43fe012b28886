package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered       EventType = "account_registered"
	EventActivationRequested     EventType = "activation_requested"
	EventPasswordResetRequested  EventType = "password_reset_requested"
	EventPasswordChanged         EventType = "password_changed"
	EventSecondaryEmailRequested EventType = "secondary_email_requested"
	EventAccountArchived         EventType = "account_archived"
	EventAccountDeleted          EventType = "account_deleted"
	EventTicketCreated           EventType = "ticket_created"
	EventTicketUpdated           EventType = "ticket_updated"
	EventTicketAnswered          EventType = "ticket_answered"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID int64       `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountMailPayload carries what an account email needs.
type AccountMailPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// TicketPayload payload for ticket lifecycle events.
type TicketPayload struct {
	TicketID int64  `json:"ticket_id"`
	Title    string `json:"title"`
}

// TicketAnsweredPayload payload.
type TicketAnsweredPayload struct {
	TicketID    int64  `json:"ticket_id"`
	AnswerID    int64  `json:"answer_id"`
	AnsweredBy  int64  `json:"answered_by"`
	OwnerEmail  string `json:"owner_email"`
	TicketTitle string `json:"ticket_title"`
}
