package graph

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/domain"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

func notFoundError() error {
	return apperrors.NewDomainError(apperrors.CodeNotFound, apperrors.NotFoundMessage, http.StatusNotFound, nil)
}

// resolverError converts err into the error a client sees. Internal failures
// are logged and reported without their cause.
func (r *Resolver) resolverError(err error) error {
	de := apperrors.ToDomainError(err)
	if de.Code == apperrors.CodeInternal {
		r.logger.Error("graphql resolver failed", zap.Error(err))
		return apperrors.NewDomainError(de.Code, de.Message, de.HTTPStatus, nil)
	}
	return apperrors.NewDomainError(de.Code, de.Message, de.HTTPStatus, de.Details)
}

// lookupError shapes errors of single-object queries. Absent and hidden objects
// share the not-found error; anonymous callers get null and no error, except on
// ticket, which maps them to not-found itself.
func (r *Resolver) lookupError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return notFoundError()
	}
	return r.resolverError(err)
}

// payload is the success/errors pair shared by mutation results.
type payload struct {
	failed bool
	errs   []*fieldErrorResolver
}

func (p payload) Success() bool {
	return !p.failed
}

func (p payload) Errors() []*fieldErrorResolver {
	if p.errs == nil {
		return []*fieldErrorResolver{}
	}
	return p.errs
}

// failure reports input and flow errors inside the payload and raises the rest.
func (r *Resolver) failure(err error) (payload, error) {
	var de *apperrors.DomainError
	if errors.As(err, &de) && reportable(de.Code) {
		return payload{failed: true, errs: fieldErrors(de)}, nil
	}
	return payload{}, r.resolverError(err)
}

func reportable(code string) bool {
	switch code {
	case apperrors.CodeNotFound, apperrors.CodeUnauthorized, apperrors.CodeForbidden, apperrors.CodeInternal:
		return false
	}
	return true
}

func fieldErrors(de *apperrors.DomainError) []*fieldErrorResolver {
	pairs := de.FieldMessages()
	if len(pairs) == 0 {
		return []*fieldErrorResolver{{field: "nonFieldErrors", message: de.Message, code: de.Code}}
	}
	out := make([]*fieldErrorResolver, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, &fieldErrorResolver{field: pair[0], message: pair[1], code: de.Code})
	}
	return out
}

type fieldErrorResolver struct {
	field   string
	message string
	code    string
}

func (f *fieldErrorResolver) Field() string   { return f.field }
func (f *fieldErrorResolver) Message() string { return f.message }
func (f *fieldErrorResolver) Code() string    { return f.code }
