package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/spec-kit/support-accounts/internal/events"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// Codes reported by the account flows, alongside the generic ones in errorutil.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotVerified        = "NOT_VERIFIED"
	CodeAlreadyVerified    = "ALREADY_VERIFIED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeInactiveAccount    = "INACTIVE_ACCOUNT"
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodeSecondaryRequired  = "SECONDARY_EMAIL_REQUIRED"
)

// nonFieldErrors is the details key for errors not tied to one input field.
const nonFieldErrors = "nonFieldErrors"

func flowError(code, field, message string) error {
	return apperrors.NewDomainError(code, message, http.StatusBadRequest, map[string]any{field: message})
}

func invalidCredentials(field string) error {
	return flowError(CodeInvalidCredentials, field, "Please, enter valid credentials.")
}

func invalidToken() error {
	return flowError(CodeInvalidToken, nonFieldErrors, "Invalid token.")
}

func expiredToken() error {
	return flowError(CodeExpiredToken, nonFieldErrors, "Expired token.")
}

func notVerified() error {
	return flowError(CodeNotVerified, nonFieldErrors, "Please verify your account.")
}

var wireFields = map[string]string{
	"phone_number":    "phoneNumber",
	"secondary_email": "secondaryEmail",
	"zip_code":        "zipCode",
	"first_name":      "firstName",
	"last_name":       "lastName",
}

// conflictFromStore renames constraint-derived fields to their wire names.
func conflictFromStore(err error) error {
	if !apperrors.IsUniqueViolation(err) {
		return err
	}
	de := apperrors.ToDomainError(err)
	details := make(map[string]any, len(de.Details))
	for field := range de.Details {
		name := field
		if wire, ok := wireFields[field]; ok {
			name = wire
		}
		details[name] = alreadyExists(name)
	}
	return apperrors.NewConflict(de.Message, details)
}

func alreadyExists(field string) string {
	switch field {
	case "phoneNumber":
		return "An account with this phone number already exists."
	case "email", "secondaryEmail":
		return "A user with that email already exists."
	case "username":
		return "A user with that username already exists."
	default:
		return strings.ToUpper(field[:1]) + field[1:] + " already exists."
	}
}

// publishEvent tolerates a nil dispatcher so services can run without one.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
