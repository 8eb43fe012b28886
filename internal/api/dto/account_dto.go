package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/support-accounts/internal/domain"
)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone strips common separators so "+1 (555) 000-1111" becomes "+15550001111".
func NormalizePhone(phone string) string {
	return phoneStripper.Replace(strings.TrimSpace(phone))
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,notblank,max=150"`
	Password1   string `json:"password1" validate:"required,min=8"`
	Password2   string `json:"password2" validate:"required,eqfield=Password1"`
	FirstName   string `json:"firstName" validate:"max=150"`
	LastName    string `json:"lastName" validate:"max=150"`
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
	State       string `json:"state" validate:"required,notblank,max=125"`
	City        string `json:"city" validate:"required,notblank,max=125"`
	Address     string `json:"address" validate:"required,notblank,max=255"`
	ZipCode     string `json:"zipCode" validate:"required,notblank,max=100"`
}

// Validate normalizes and validates the input.
func (in *RegisterInput) Validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = NormalizePhone(in.PhoneNumber)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Address = strings.TrimSpace(in.Address)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	return Validate(in)
}

// ToAccount builds an unverified, active account. The password hash is set by the caller.
func (in *RegisterInput) ToAccount() *domain.Account {
	return &domain.Account{
		Username:    in.Username,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		IsActive:    true,
		PhoneNumber: in.PhoneNumber,
		State:       in.State,
		City:        in.City,
		Address:     in.Address,
		ZipCode:     in.ZipCode,
	}
}

// UpdateAccountInput carries optional profile changes.
type UpdateAccountInput struct {
	FirstName   *string `json:"firstName" validate:"omitnil,max=150"`
	LastName    *string `json:"lastName" validate:"omitnil,max=150"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitnil,e164"`
	State       *string `json:"state" validate:"omitnil,notblank,max=125"`
	City        *string `json:"city" validate:"omitnil,notblank,max=125"`
	Address     *string `json:"address" validate:"omitnil,notblank,max=255"`
	ZipCode     *string `json:"zipCode" validate:"omitnil,notblank,max=100"`
}

// Validate normalizes and validates the input.
func (in *UpdateAccountInput) Validate() error {
	in.FirstName = trimPtr(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	if in.PhoneNumber != nil {
		phone := NormalizePhone(*in.PhoneNumber)
		in.PhoneNumber = &phone
	}
	in.State = trimPtr(in.State)
	in.City = trimPtr(in.City)
	in.Address = trimPtr(in.Address)
	in.ZipCode = trimPtr(in.ZipCode)
	return Validate(in)
}

// ApplyTo copies the set fields onto the account.
func (in *UpdateAccountInput) ApplyTo(account *domain.Account) {
	if in.FirstName != nil {
		account.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		account.LastName = *in.LastName
	}
	if in.PhoneNumber != nil {
		account.PhoneNumber = *in.PhoneNumber
	}
	if in.State != nil {
		account.State = *in.State
	}
	if in.City != nil {
		account.City = *in.City
	}
	if in.Address != nil {
		account.Address = *in.Address
	}
	if in.ZipCode != nil {
		account.ZipCode = *in.ZipCode
	}
}

// PasswordChangeInput payload for authenticated password changes.
type PasswordChangeInput struct {
	OldPassword  string `json:"oldPassword" validate:"required"`
	NewPassword1 string `json:"newPassword1" validate:"required,min=8"`
	NewPassword2 string `json:"newPassword2" validate:"required,eqfield=NewPassword1"`
}

// PasswordResetInput payload for confirming a reset.
type PasswordResetInput struct {
	Token        string `json:"token" validate:"required"`
	NewPassword1 string `json:"newPassword1" validate:"required,min=8"`
	NewPassword2 string `json:"newPassword2" validate:"required,eqfield=NewPassword1"`
}

// SecondaryEmailInput payload for adding a secondary email.
type SecondaryEmailInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// CouponInput payload for creating coupons.
type CouponInput struct {
	Title         string    `json:"title" validate:"required,notblank,max=255"`
	DiscountPrice int       `json:"discountPrice" validate:"gt=0"`
	EndAt         time.Time `json:"endAt" validate:"required"`
}

// Validate normalizes and validates the input.
func (in *CouponInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	return Validate(in)
}
