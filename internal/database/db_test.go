package database_test

import (
	"testing"

	"github.com/askhat/neighborbot/internal/database"
)

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "plain path",
			path: "bot.db",
			want: "bot.db",
		},
		{
			name: "file scheme",
			path: "file:data/bot.db",
			want: "data/bot.db",
		},
		{
			name: "query parameters stripped",
			path: "file:bot.db?mode=rwc&_pragma=busy_timeout(5000)",
			want: "bot.db",
		},
		{
			name: "percent escapes decoded",
			path: "file:my%20bot.db",
			want: "my bot.db",
		},
		{
			name: "in-memory",
			path: ":memory:",
			want: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := database.ExtractDBNameFromPath(tt.path); got != tt.want {
				t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
