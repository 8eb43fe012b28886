package domain

import (
	"strings"
	"time"
)

// Account is an end-user identity extended with contact and profile fields.
type Account struct {
	ID             int64
	Username       string
	Email          string
	SecondaryEmail *string
	PasswordHash   string
	FirstName      string
	LastName       string
	IsSupporter    bool
	IsStaff        bool
	IsActive       bool
	Verified       bool
	Archived       bool
	PhoneNumber    string
	State          string
	City           string
	Address        string
	ZipCode        string
	DateJoined     time.Time
	LastLogin      *time.Time
}

// FullName returns "first last", falling back to the username.
func (a *Account) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Username
	}
	return name
}

// CanAnswerTickets reports whether the account works on the support side.
func (a *Account) CanAnswerTickets() bool {
	return a.IsSupporter || a.IsStaff
}
