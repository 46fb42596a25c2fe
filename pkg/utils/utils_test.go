package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1 := generateID("test")
	id2 := generateID("test")

	if id1 == id2 {
		t.Error("expected different IDs")
	}

	if !strings.HasPrefix(id1, "test_") {
		t.Errorf("expected prefix 'test_', got %s", id1)
	}
}

func TestGenerateRoomID(t *testing.T) {
	id1 := GenerateRoomID()
	id2 := GenerateRoomID()

	if id1 == id2 {
		t.Error("expected different room IDs")
	}

	if !strings.HasPrefix(id1, "room_") {
		t.Errorf("expected prefix 'room_', got %s", id1)
	}
}

func TestGenerateUserID(t *testing.T) {
	id1 := GenerateUserID()
	id2 := GenerateUserID()

	if id1 == id2 {
		t.Error("expected different user IDs")
	}

	if !strings.HasPrefix(id1, "user_") {
		t.Errorf("expected prefix 'user_', got %s", id1)
	}
}

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	if id1 == id2 {
		t.Error("expected different request IDs")
	}

	if !strings.HasPrefix(id1, "req_") {
		t.Errorf("expected prefix 'req_', got %s", id1)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{100 * time.Millisecond, "100ms"},
		{2 * time.Second, "2.00s"},
		{2*time.Minute + 30*time.Second, "2m30s"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			result := FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}
