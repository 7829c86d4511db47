package gameerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "custom message same kind",
			err:    New(KindQuotaExceeded, "nessuna azione rimasta (%d/%d)", 20, 20),
			target: ErrQuotaExceeded,
			want:   true,
		},
		{
			name:   "wrapped with fmt",
			err:    fmt.Errorf("use aid: %w", ErrWindowClosed),
			target: ErrWindowClosed,
			want:   true,
		},
		{
			name:   "different kind",
			err:    ErrAlreadyUsed,
			target: ErrAlreadyAttempted,
			want:   false,
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			target: ErrNotFound,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayerMessage(t *testing.T) {
	if got := PlayerMessage(NotFound("Sfida")); got != "Sfida non trovato" {
		t.Errorf("PlayerMessage() = %q", got)
	}
	if got := PlayerMessage(errors.New("connection reset")); got != "Si è verificato un errore, riprova più tardi" {
		t.Errorf("PlayerMessage() leaked infrastructure error: %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindAlreadyAttempted, cause, "Hai già affrontato questa sfida")
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if KindOf(err) != KindAlreadyAttempted {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if !IsGameError(fmt.Errorf("ctx: %w", err)) {
		t.Error("expected wrapped game error to be detected")
	}
}
