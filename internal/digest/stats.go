package digest

import (
	"sort"

	"github.com/askhat/neighborbot/internal/database"
)

// UserCount pairs a display name with a message count.
type UserCount struct {
	Name  string
	Count int
}

// DayStats aggregates one chat's activity for a day.
type DayStats struct {
	Messages     int
	Participants int
	TopUsers     []UserCount
}

// ComputeStats tallies messages per display name and ranks users by
// count descending, ties broken by name for stable output.
func ComputeStats(messages []database.Message) DayStats {
	counts := make(map[string]int)
	for i := range messages {
		counts[messages[i].DisplayName()]++
	}

	top := make([]UserCount, 0, len(counts))
	for name, count := range counts {
		top = append(top, UserCount{Name: name, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Name < top[j].Name
	})

	return DayStats{
		Messages:     len(messages),
		Participants: len(counts),
		TopUsers:     top,
	}
}

// topN returns at most n leading entries.
func topN(users []UserCount, n int) []UserCount {
	if len(users) <= n {
		return users
	}
	return users[:n]
}
