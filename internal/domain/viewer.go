package domain

import "errors"

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrForbidden is returned when the object exists but the viewer may not see it.
	ErrForbidden = errors.New("access denied")
	// ErrUnauthenticated is returned when an operation needs a signed-in viewer.
	ErrUnauthenticated = errors.New("authentication required")
)

// Viewer is the identity a request acts as. A nil Account means anonymous.
type Viewer struct {
	Account *Account
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// ViewerOf wraps an account.
func ViewerOf(account *Account) Viewer {
	return Viewer{Account: account}
}

// Authenticated reports whether the request carries an identity.
func (v Viewer) Authenticated() bool {
	return v.Account != nil
}

// Active reports whether the identity exists and its account is active.
func (v Viewer) Active() bool {
	return v.Account != nil && v.Account.IsActive
}

// AccountID returns the viewer's account id, or 0 when anonymous.
func (v Viewer) AccountID() int64 {
	if v.Account == nil {
		return 0
	}
	return v.Account.ID
}

// Owns reports whether the viewer is the given owner.
func (v Viewer) Owns(ownerID int64) bool {
	return v.Account != nil && v.Account.ID == ownerID
}

// IsStaff reports whether the viewer is an active staff account.
func (v Viewer) IsStaff() bool {
	return v.Active() && v.Account.IsStaff
}
