package discord

import (
	"fmt"
	"strings"

	"github.com/memohai/albumbot/internal/config"
)

// Config holds what the adapter needs to connect.
type Config struct {
	BotToken string
	// GuildID scopes slash command registration; empty registers them globally.
	GuildID string
}

// ParseConfig validates the discord section of the application config.
func ParseConfig(raw config.DiscordConfig) (Config, error) {
	token := strings.TrimSpace(raw.Token)
	if token == "" {
		return Config{}, fmt.Errorf("discord bot token is required")
	}
	token = strings.TrimPrefix(token, "Bot ")
	return Config{
		BotToken: token,
		GuildID:  strings.TrimSpace(raw.GuildID),
	}, nil
}
