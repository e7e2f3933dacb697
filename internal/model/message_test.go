package model

import (
	"strings"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "hello", 50, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello…"},
		{"empty", "", 10, ""},
		{"multibyte", strings.Repeat("é", 60), 50, strings.Repeat("é", 50) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestMessagePreview(t *testing.T) {
	now := time.Now()
	long := strings.Repeat("x", ReplyPreviewLen+10)

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"text", Message{Kind: MessageKindText, Body: "hi there"}, "hi there"},
		{"long text", Message{Kind: MessageKindText, Body: long}, strings.Repeat("x", ReplyPreviewLen) + "…"},
		{"image", Message{Kind: MessageKindImage}, "📷 Photo"},
		{"video", Message{Kind: MessageKindVideo}, "🎬 Video"},
		{"voice", Message{Kind: MessageKindVoice}, "🎤 Voice message"},
		{"document", Message{Kind: MessageKindDocument}, "📄 Document"},
		{"location", Message{Kind: MessageKindLocation}, "📍 Location"},
		{"deleted", Message{Kind: MessageKindText, Body: "gone", DeletedAt: &now}, "Message deleted"},
		{"deleted media", Message{Kind: MessageKindImage, DeletedAt: &now}, "Message deleted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Preview(); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReactionSetRoundtrip(t *testing.T) {
	set := ReactionSet{"user-1": "👍", "user-2": "❤️"}

	value, err := set.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded ReactionSet
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 2 || decoded["user-1"] != "👍" || decoded["user-2"] != "❤️" {
		t.Errorf("roundtrip = %v", decoded)
	}
}

func TestReactionSetScanEmpty(t *testing.T) {
	var set ReactionSet
	if err := set.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if set == nil || len(set) != 0 {
		t.Errorf("Scan(nil) = %v, want empty set", set)
	}

	var empty ReactionSet
	if err := empty.Scan("{}"); err != nil {
		t.Fatalf("Scan({}): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Scan({}) = %v, want empty set", empty)
	}
}

func TestReactionSetValueEmpty(t *testing.T) {
	value, err := ReactionSet{}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if value != "{}" {
		t.Errorf("Value() = %v, want {}", value)
	}
}
