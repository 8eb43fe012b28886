package domain

import "time"

// Ticket is a support request filed by an account.
type Ticket struct {
	ID        int64
	OwnerID   int64
	Title     string
	UserText  string
	CreatedAt time.Time
}

// TicketAnswer is the support-side reply to a ticket.
type TicketAnswer struct {
	ID        int64
	TicketID  int64
	Answer    string
	CreatedAt time.Time
}
