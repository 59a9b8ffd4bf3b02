package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidName     = errors.New("invalid item name")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// ValidationError reports rejected user input. It matches ErrInvalidName or
// ErrInvalidQuantity through errors.Is.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GatewayError wraps any failure reported by the persistence gateway.
type GatewayError struct {
	Op  string
	Key string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ValidateName trims the name and rejects it when empty.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Value: name, Err: ErrInvalidName}
	}
	return trimmed, nil
}

// ParseQuantity parses a raw form value as a non-negative base-10 integer.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Field: "quantity", Value: raw, Err: ErrInvalidQuantity}
	}
	if q < 0 {
		return 0, &ValidationError{Field: "quantity", Value: raw, Err: fmt.Errorf("%w: must not be negative", ErrInvalidQuantity)}
	}
	return q, nil
}

// AddQuantity tops up a stored quantity. Both operands are non-negative; a
// total that does not fit in an int is rejected as an invalid quantity.
func AddQuantity(current, delta int) (int, error) {
	if current > math.MaxInt-delta {
		return 0, OverflowError(delta)
	}
	return current + delta, nil
}

// OverflowError reports an increment that would push a quantity past math.MaxInt.
func OverflowError(delta int) *ValidationError {
	return &ValidationError{
		Field: "quantity",
		Value: strconv.Itoa(delta),
		Err:   fmt.Errorf("%w: total would exceed %d", ErrInvalidQuantity, math.MaxInt),
	}
}
