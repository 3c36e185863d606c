package discord

import (
	"github.com/bwmarrin/discordgo"
)

// rejectionThreshold is the vote score at or below which a community track
// flips to rejected. The bot's own seed reactions cancel out, so the score
// reflects real votes only.
const rejectionThreshold = -1

// voteScore computes count(✅) − count(❌) over a message's reactions.
// Other emoji are ignored.
func voteScore(reactions []*discordgo.MessageReactions) int {
	score := 0
	for _, reaction := range reactions {
		if reaction == nil || reaction.Emoji == nil {
			continue
		}
		switch reaction.Emoji.Name {
		case emojiAccept:
			score += reaction.Count
		case emojiReject:
			score -= reaction.Count
		}
	}
	return score
}
