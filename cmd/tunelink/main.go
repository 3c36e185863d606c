// Package main provides the TuneLink CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunelink/internal/core"
	"tunelink/internal/discord"
	httpserver "tunelink/internal/http"
	"tunelink/internal/resolver"
	"tunelink/internal/store"
	"tunelink/internal/tokens"
	"tunelink/pkg/platform"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunelink",
	Short: "TuneLink - cross-platform music link bot for Discord",
	Long: `TuneLink converts music and video track URLs between Spotify, YouTube,
YouTube Music and BeatSaver, and runs a community playlist with emoji-vote
moderation, all as a Discord bot.`,
	RunE: runTuneLink,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("discord-token", "", "Discord bot token")
	rootCmd.PersistentFlags().String("discord-guild-id", "", "Guild the commands are scoped to (empty for global)")
	rootCmd.PersistentFlags().String("discord-community-channel-id", "", "Channel the community playlist is posted to")
	rootCmd.PersistentFlags().StringSlice("platforms", []string{"spotify", "youtube", "ytmusic", "beatsaver"}, "Active platforms in dispatch order")
	rootCmd.PersistentFlags().String("preferred-platform", "spotify", "Platform conversions target by default")
	rootCmd.PersistentFlags().StringSlice("disliked-platforms", nil, "Platforms whose URLs get auto-converted in chat")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("youtube-api-key", "", "YouTube Data API key")
	rootCmd.PersistentFlags().String("beatsaver-base-url", "", "BeatSaver API base URL override")
	rootCmd.PersistentFlags().String("db-path", "./tunelink.db", "Path of the community playlist database")
	rootCmd.PersistentFlags().Int("cache-size", 512, "Resolved-track cache size")
	rootCmd.PersistentFlags().Int("cache-ttl-mins", 15, "Resolved-track cache TTL in minutes")
	rootCmd.PersistentFlags().Int("token-refresh-interval-mins", 20, "Access token refresh interval in minutes")
	rootCmd.PersistentFlags().Int("max-playlist-tracks", 15, "Default number of playlist tracks rendered")
	rootCmd.PersistentFlags().Int("auto-convert-per-minute", 4, "Auto-convert replies allowed per user per channel per minute")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("TUNELINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Discord.Token = viper.GetString("discord-token")
	cfg.Discord.GuildID = viper.GetString("discord-guild-id")
	cfg.Discord.CommunityChannelID = viper.GetString("discord-community-channel-id")

	if platforms := viper.GetStringSlice("platforms"); len(platforms) > 0 {
		cfg.Platforms.Active = platforms
	}
	if preferred := viper.GetString("preferred-platform"); preferred != "" {
		cfg.Platforms.Preferred = preferred
	}
	cfg.Platforms.Disliked = viper.GetStringSlice("disliked-platforms")
	cfg.Platforms.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Platforms.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Platforms.YouTube.APIKey = viper.GetString("youtube-api-key")
	cfg.Platforms.BeatSaver.BaseURL = viper.GetString("beatsaver-base-url")

	if path := viper.GetString("db-path"); path != "" {
		cfg.Store.Path = path
	}
	if size := viper.GetInt("cache-size"); size > 0 {
		cfg.App.CacheSize = size
	}
	if mins := viper.GetInt("cache-ttl-mins"); mins > 0 {
		cfg.App.CacheTTL = time.Duration(mins) * time.Minute
	}
	if mins := viper.GetInt("token-refresh-interval-mins"); mins > 0 {
		cfg.App.TokenRefreshInterval = time.Duration(mins) * time.Minute
	}
	if n := viper.GetInt("max-playlist-tracks"); n > 0 {
		cfg.App.MaxPlaylistTracks = n
	}
	if n := viper.GetInt("auto-convert-per-minute"); n > 0 {
		cfg.App.AutoConvertPerMinute = n
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port > 0 {
		cfg.Server.Port = port
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTuneLink(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting TuneLink",
		zap.Strings("platforms", config.Platforms.Active),
		zap.String("preferred", config.Platforms.Preferred))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	client := platform.NewClient()
	defer client.Close()

	registry, err := buildRegistry(client)
	if err != nil {
		return err
	}

	playlistStore, err := store.Open(config.Store.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := playlistStore.Close(); err != nil {
			logger.Error("Failed to close playlist store", zap.Error(err))
		}
	}()

	dedup := store.NewDedupIndex(config.Store.DedupCapacity, config.Store.DedupFPRate)
	urls, err := playlistStore.URLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load community playlist: %w", err)
	}
	dedup.Load(urls)
	logger.Info("Community playlist loaded", zap.Int("tracks", len(urls)))

	res := resolver.New(registry, config.App.CacheSize, config.App.CacheTTL, logger)
	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))
	tokenManager := tokens.NewManager(registry, config.App.TokenRefreshInterval, httpServer.GetMetrics(), logger)

	bot, err := discord.NewBot(config, res, registry, playlistStore, dedup, httpServer.GetMetrics(), logger)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return tokenManager.Run(gCtx)
	})

	g.Go(func() error {
		return bot.Run(gCtx)
	})

	logger.Info("TuneLink started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("TuneLink stopped with error", zap.Error(err))
		return err
	}

	logger.Info("TuneLink stopped gracefully")
	return nil
}

// buildRegistry constructs the active adapters in their configured dispatch
// order around the shared HTTP client.
func buildRegistry(client *platform.Client) (*platform.Registry, error) {
	registry := platform.NewRegistry(client)

	var youtubeAdapter *platform.YouTubeAdapter
	youtube := func() (*platform.YouTubeAdapter, error) {
		if youtubeAdapter != nil {
			return youtubeAdapter, nil
		}
		a, err := platform.NewYouTubeAdapter(config.Platforms.YouTube.APIKey, client)
		if err != nil {
			return nil, err
		}
		youtubeAdapter = a
		return a, nil
	}

	for _, name := range config.Platforms.Active {
		var (
			api platform.API
			err error
		)

		switch name {
		case platform.SpotifyName:
			api = platform.NewSpotifyAdapter(
				config.Platforms.Spotify.ClientID,
				config.Platforms.Spotify.ClientSecret,
				client,
			)
		case platform.YouTubeName:
			api, err = youtube()
		case platform.YouTubeMusicName:
			var yt *platform.YouTubeAdapter
			if yt, err = youtube(); err == nil {
				api = platform.NewYouTubeMusicAdapter(yt)
			}
		case platform.BeatSaverName:
			api = platform.NewBeatSaverAdapter(client, config.Platforms.BeatSaver.BaseURL)
		default:
			return nil, fmt.Errorf("unknown platform %q in active list", name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build %s adapter: %w", name, err)
		}

		if err := registry.Register(api); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func validateConfig() error {
	if config.Discord.Token == "" {
		return fmt.Errorf("discord token is required")
	}

	if len(config.Platforms.Active) == 0 {
		return fmt.Errorf("at least one active platform is required")
	}

	active := make(map[string]bool, len(config.Platforms.Active))
	for _, name := range config.Platforms.Active {
		active[name] = true
	}

	if !active[config.Platforms.Preferred] {
		return fmt.Errorf("preferred platform %q is not in the active list", config.Platforms.Preferred)
	}
	for _, name := range config.Platforms.Disliked {
		if !active[name] {
			return fmt.Errorf("disliked platform %q is not in the active list", name)
		}
	}

	if active[platform.SpotifyName] {
		if config.Platforms.Spotify.ClientID == "" {
			return fmt.Errorf("spotify client ID is required")
		}
		if config.Platforms.Spotify.ClientSecret == "" {
			return fmt.Errorf("spotify client secret is required")
		}
	}

	if (active[platform.YouTubeName] || active[platform.YouTubeMusicName]) && config.Platforms.YouTube.APIKey == "" {
		return fmt.Errorf("youtube API key is required")
	}

	return nil
}
