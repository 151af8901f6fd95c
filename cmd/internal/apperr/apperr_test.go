package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "validation", err: Validation("op", FieldError{Field: "email", Message: "is required"}), want: ErrValidation},
		{name: "conflict", err: Conflict("op", "user already exists"), want: ErrConflict},
		{name: "unauthorized", err: Unauthorized("op", "invalid credentials"), want: ErrUnauthorized},
		{name: "not found", err: NotFound("op", "session not found"), want: ErrNotFound},
		{name: "wrapped", err: fmt.Errorf("outer: %w", Unauthorized("op", "x")), want: ErrUnauthorized},
		{name: "plain", err: errors.New("boom"), want: ErrInternal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf()=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Internal("auth.Login", cause)

	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if got := Message(err); got != "internal error" {
		t.Fatalf("Message()=%q", got)
	}
}

func TestFieldsOf(t *testing.T) {
	err := Validation("op",
		FieldError{Field: "email", Message: "must be a valid email address"},
		FieldError{Field: "confirmPassword", Message: "must match password"},
	)
	fields := FieldsOf(err)
	if len(fields) != 2 || fields[1].Field != "confirmPassword" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if FieldsOf(errors.New("x")) != nil {
		t.Fatalf("expected nil fields for plain error")
	}
}
