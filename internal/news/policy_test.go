package news_test

import (
	"testing"

	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/news"
)

func TestShouldForward(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		message      *database.Message
		minReactions int
		expected     bool
	}{
		{
			name:     "nil message",
			message:  nil,
			expected: false,
		},
		{
			name:         "photo at threshold",
			message:      &database.Message{HasPhoto: true, TotalReactions: 5},
			minReactions: 5,
			expected:     true,
		},
		{
			name:         "photo above threshold",
			message:      &database.Message{HasPhoto: true, TotalReactions: 12},
			minReactions: 5,
			expected:     true,
		},
		{
			name:         "photo below threshold",
			message:      &database.Message{HasPhoto: true, TotalReactions: 4},
			minReactions: 5,
			expected:     false,
		},
		{
			name:         "no photo regardless of reactions",
			message:      &database.Message{HasPhoto: false, TotalReactions: 100},
			minReactions: 5,
			expected:     false,
		},
		{
			name:         "already forwarded",
			message:      &database.Message{HasPhoto: true, TotalReactions: 10, IsForwarded: true},
			minReactions: 5,
			expected:     false,
		},
		{
			name:         "zero reactions with zero threshold",
			message:      &database.Message{HasPhoto: true, TotalReactions: 0},
			minReactions: 1,
			expected:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := news.ShouldForward(tc.message, tc.minReactions)
			if got != tc.expected {
				t.Errorf("ShouldForward(%+v, %d) = %v, want %v",
					tc.message, tc.minReactions, got, tc.expected)
			}
		})
	}
}
