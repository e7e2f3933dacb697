package emoji

import (
	"testing"
)

func Test_IsValid(t *testing.T) {
	tt := []struct {
		name  string
		emoji string
		want  bool
	}{
		{
			name:  "picker_thumbs_up",
			emoji: "👍️",
			want:  true,
		},
		{
			name:  "os_thumbs_up",
			emoji: "👍",
			want:  true,
		},
		{
			name:  "heart_with_selector",
			emoji: "❤️",
			want:  true,
		},
		{
			name:  "plain_letter",
			emoji: "x",
			want:  false,
		},
		{
			name:  "empty",
			emoji: "",
			want:  false,
		},
		{
			name:  "two_emojis",
			emoji: "👍👍",
			want:  false,
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValid(tc.emoji)
			if tc.want != got {
				t.Errorf("%q want %v; got %v", tc.emoji, tc.want, got)
			}
		})
	}
}
