// Package storage persists city save segments in a SQL database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidCityID = errors.New("invalid city id")
	ErrNilParameter  = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCityID ensures id is a canonical ULID.
func validateCityID(id string) error {
	if err := validateString(id, "cityID"); err != nil {
		return err
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidCityID, id, err)
	}
	return nil
}
