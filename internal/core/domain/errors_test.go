package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{" 7 ", 7, false},
		{"+3", 3, false},
		{"", 0, true},
		{"abc", 0, true},
		{"10abc", 0, true},
		{"1.5", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseQuantity(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidQuantity) {
				t.Errorf("ParseQuantity(%q): expected ErrInvalidQuantity, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuantity(%q): unexpected error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseQuantity(%q): expected %d, got %d", tt.raw, tt.want, got)
		}
	}
}

func TestValidateName(t *testing.T) {
	got, err := ValidateName("  Rice ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Rice" {
		t.Errorf("expected trimmed name, got %q", got)
	}

	_, err = ValidateName(" \t")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Errorf("expected name ValidationError, got %v", err)
	}
}

func TestGatewayError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := &GatewayError{Op: "list", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected GatewayError to unwrap to its cause")
	}
	if err.Error() != "gateway list: timeout" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAddQuantity(t *testing.T) {
	got, err := AddQuantity(2, 3)
	if err != nil || got != 5 {
		t.Errorf("expected 5, got %d (%v)", got, err)
	}

	got, err = AddQuantity(math.MaxInt-1, 1)
	if err != nil || got != math.MaxInt {
		t.Errorf("expected MaxInt, got %d (%v)", got, err)
	}

	_, err = AddQuantity(1, math.MaxInt)
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected quantity ValidationError on overflow, got %v", err)
	}
}
