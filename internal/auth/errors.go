package auth

import (
	"fmt"

	"github.com/mycelian/nurture-tracker/internal/model"
)

var (
	// ErrMissingToken is returned when the request carries no bearer token.
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", model.ErrUnauthorized)

	// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", model.ErrUnauthorized)

	// ErrSessionEnded is returned when the token's device session was removed.
	ErrSessionEnded = fmt.Errorf("%w: device session ended", model.ErrUnauthorized)

	// ErrInactiveUser is returned for disabled accounts.
	ErrInactiveUser = fmt.Errorf("%w: account is disabled", model.ErrUnauthorized)
)
