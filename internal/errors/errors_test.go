package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	base := NewInputShape("analysis.ReadCSV", "ragged row", 3, nil)
	wrapped := fmt.Errorf("load left table: %w", base)

	if !Is(wrapped, ErrInputShape) {
		t.Fatalf("expected wrapped error to be an input shape error")
	}
	if Is(wrapped, ErrValidation) || Is(wrapped, ErrDB) {
		t.Fatalf("wrapped input shape error matched the wrong kind")
	}
	var shape *InputShapeError
	if !errors.As(wrapped, &shape) || shape.Row != 3 {
		t.Fatalf("errors.As failed or lost row: %+v", shape)
	}
}

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"shape with row", NewInputShape("op", "ragged row", 2, nil), "input shape: op: ragged row (row 2)"},
		{"shape without row", NewInputShape("op", "empty header", 0, nil), "input shape: op: empty header"},
		{"validation with cause", NewValidation("op", "bad", errors.New("cause")), "validation: op: bad: cause"},
		{"db", NewDB("op", "query failed", nil), "db: op: query failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.EqualFold(got, tt.want) {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDB("service.Connect", "ping", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected DBError to unwrap to its cause")
	}
}
