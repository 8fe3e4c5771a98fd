// Package validation checks user input before it reaches the backend, the way the
// sign-in and transaction forms do.
package validation

import (
	"math"
	"strings"

	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/transactions"
)

// Validator groups the form checks.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials checks a login form.
func (v *Validator) ValidateCredentials(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "password is required")
	}
	return nil
}

// ValidateEmail is a basic shape check, the backend has the final word.
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "email is required")
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") || strings.ContainsAny(email, " \t\r\n") {
		return errors.Wrapf(errors.ErrInvalidInput, "invalid email format")
	}
	return nil
}

// ValidateAccessToken checks that token looks like a JWT: three non-empty dot separated parts.
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "access token is required")
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return errors.Wrapf(errors.ErrInvalidToken, "must be a valid JWT")
	}
	for i, part := range parts {
		if part == "" {
			return errors.Wrapf(errors.ErrInvalidToken, "part %d is empty", i+1)
		}
	}
	return nil
}

// ValidateTransaction checks a transaction form: a known type, finite amounts and at
// least one non-zero amount.
func (v *Validator) ValidateTransaction(req transactions.CreateRequest) error {
	if transactions.TypeName(req.TypeID) == transactions.TypeName(0) {
		return errors.Wrapf(errors.ErrInvalidInput, "unknown transaction type %d", req.TypeID)
	}
	for _, amount := range []float64{req.Pesos, req.Dollars} {
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return errors.Wrapf(errors.ErrInvalidInput, "amount must be a finite number")
		}
	}
	if req.Pesos == 0 && req.Dollars == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "amount is required")
	}
	return nil
}
