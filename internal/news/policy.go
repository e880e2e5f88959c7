// Package news implements the popular-photo forwarding pipeline: on every
// reaction-change event it updates the reaction ledger, recounts the
// message's popularity, and copies messages that cross the configured
// reaction threshold into the news chat exactly once.
package news

import "github.com/askhat/neighborbot/internal/database"

// ShouldForward decides whether a message qualifies for the news chat:
// it must carry a photo, have collected at least minReactions, and not
// have been forwarded before. Pure function over the message's stored
// state.
func ShouldForward(message *database.Message, minReactions int) bool {
	if message == nil {
		return false
	}
	return message.HasPhoto &&
		message.TotalReactions >= minReactions &&
		!message.IsForwarded
}
