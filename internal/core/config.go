package core

import (
	"time"
)

type Config struct {
	Discord   DiscordConfig
	Platforms PlatformsConfig
	Store     StoreConfig
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
}

type DiscordConfig struct {
	Token              string
	GuildID            string
	CommunityChannelID string
}

type PlatformsConfig struct {
	Active    []string
	Preferred string
	Disliked  []string
	Spotify   SpotifyConfig
	YouTube   YouTubeConfig
	BeatSaver BeatSaverConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type YouTubeConfig struct {
	APIKey string
}

type BeatSaverConfig struct {
	BaseURL string
}

type StoreConfig struct {
	Path          string
	DedupCapacity int
	DedupFPRate   float64
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	TokenRefreshInterval time.Duration
	CacheSize            int
	CacheTTL             time.Duration
	MaxPlaylistTracks    int
	AutoConvertPerMinute int
}

func DefaultConfig() *Config {
	return &Config{
		Platforms: PlatformsConfig{
			Active:    []string{"spotify", "youtube", "ytmusic", "beatsaver"},
			Preferred: "spotify",
		},
		Store: StoreConfig{
			Path:          "./tunelink.db",
			DedupCapacity: 100000,
			DedupFPRate:   0.001,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			TokenRefreshInterval: 20 * time.Minute,
			CacheSize:            512,
			CacheTTL:             15 * time.Minute,
			MaxPlaylistTracks:    15,
			AutoConvertPerMinute: 4,
		},
	}
}
