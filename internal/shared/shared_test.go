package shared

import (
	"bytes"
	"errors"
	"testing"
)

func TestShared(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		id := GenerateID()
		if id == "" {
			t.Error("expected non-empty ID")
		}

		other := GenerateID()
		if id == other {
			t.Error("expected unique IDs")
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		t.Run("Minimum Length", func(t *testing.T) {
			state, err := GenerateState(MinStateLength)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(state) != MinStateLength {
				t.Errorf("expected state length %d, got %d", MinStateLength, len(state))
			}
		})

		t.Run("Alphanumeric", func(t *testing.T) {
			state, err := GenerateState(32)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			for _, c := range state {
				isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
				if !isAlnum {
					t.Errorf("unexpected character %q in state token", c)
				}
			}
		})

		t.Run("Unique", func(t *testing.T) {
			a, _ := GenerateState(32)
			b, _ := GenerateState(32)
			if a == b {
				t.Error("expected distinct state tokens")
			}
		})

		t.Run("Rejects Short Length", func(t *testing.T) {
			if _, err := GenerateState(8); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("FormatDuration", func(t *testing.T) {
		tests := []struct {
			seconds int
			want    string
		}{
			{0, "0:00"},
			{59, "0:59"},
			{60, "1:00"},
			{320, "5:20"},
			{3600, "1:00:00"},
			{3725, "1:02:05"},
			{-5, "0:00"},
		}

		for _, tc := range tests {
			if got := FormatDuration(tc.seconds); got != tc.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
			}
		}
	})

	t.Run("NewLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("hello")
		if buf.Len() == 0 {
			t.Error("expected log output to be written")
		}
	})
}
