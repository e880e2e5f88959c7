package config_test

import (
	"testing"

	"github.com/askhat/neighborbot/internal/config"
)

func TestSourceAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sourceChats []int64
		chatID      int64
		want        bool
	}{
		{
			name:        "empty allowlist admits every chat",
			sourceChats: nil,
			chatID:      -100123,
			want:        true,
		},
		{
			name:        "listed chat allowed",
			sourceChats: []int64{-100123, -100456},
			chatID:      -100456,
			want:        true,
		},
		{
			name:        "unlisted chat rejected",
			sourceChats: []int64{-100123},
			chatID:      -100456,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewsConfig{SourceChats: tt.sourceChats}
			if got := cfg.SourceAllowed(tt.chatID); got != tt.want {
				t.Errorf("SourceAllowed(%d) = %v, want %v", tt.chatID, got, tt.want)
			}
		})
	}
}
