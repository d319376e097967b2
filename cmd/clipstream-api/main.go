package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ClipStreamLabs/clipstream/backend/internal/auth"
	"github.com/ClipStreamLabs/clipstream/backend/internal/comments"
	"github.com/ClipStreamLabs/clipstream/backend/internal/config"
	"github.com/ClipStreamLabs/clipstream/backend/internal/database"
	"github.com/ClipStreamLabs/clipstream/backend/internal/likes"
	"github.com/ClipStreamLabs/clipstream/backend/internal/logging"
	"github.com/ClipStreamLabs/clipstream/backend/internal/media"
	"github.com/ClipStreamLabs/clipstream/backend/internal/playlists"
	"github.com/ClipStreamLabs/clipstream/backend/internal/server"
	"github.com/ClipStreamLabs/clipstream/backend/internal/subscriptions"
	"github.com/ClipStreamLabs/clipstream/backend/internal/tweets"
	"github.com/ClipStreamLabs/clipstream/backend/internal/users"
	"github.com/ClipStreamLabs/clipstream/backend/internal/videos"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipstream-api",
		Short: "ClipStream video platform backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("media-dir", defaults.GetString("media.dir"), "Directory for uploaded media assets")
	cmd.PersistentFlags().String("media-public-url", defaults.GetString("media.public_url"), "Public URL prefix for media assets")
	cmd.PersistentFlags().Int("access-ttl-minutes", defaults.GetInt("auth.access_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().Int("refresh-ttl-hours", defaults.GetInt("auth.refresh_ttl_hours"), "Refresh token TTL in hours")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "media.dir", "media-dir")
	bindFlag(cmd, "media.public_url", "media-public-url")
	bindFlag(cmd, "auth.access_ttl_minutes", "access-ttl-minutes")
	bindFlag(cmd, "auth.refresh_ttl_hours", "refresh-ttl-hours")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "clipstream-auth",
		Audience:      "clipstream-api",
		AccessTTL:     appConfig.AccessTTL,
		RefreshTTL:    appConfig.RefreshTTL,
	})

	mediaStore, err := media.NewDiskStore(media.DiskStoreConfig{
		BaseDir:   appConfig.MediaDir,
		PublicURL: appConfig.MediaPublicURL,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	viewBuilder, err := views.NewBuilder(views.BuilderConfig{Database: db})
	if err != nil {
		return err
	}

	userService, err := users.NewService(users.ServiceConfig{
		Database: db, Views: viewBuilder, Tokens: tokenManager, Media: mediaStore, Logger: logger,
	})
	if err != nil {
		return err
	}
	videoService, err := videos.NewService(videos.ServiceConfig{
		Database: db, Views: viewBuilder, Media: mediaStore, Logger: logger,
	})
	if err != nil {
		return err
	}
	commentService, err := comments.NewService(comments.ServiceConfig{Database: db, Views: viewBuilder, Logger: logger})
	if err != nil {
		return err
	}
	tweetService, err := tweets.NewService(tweets.ServiceConfig{Database: db, Views: viewBuilder, Logger: logger})
	if err != nil {
		return err
	}
	likeService, err := likes.NewService(likes.ServiceConfig{Database: db, Views: viewBuilder, Logger: logger})
	if err != nil {
		return err
	}
	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceConfig{Database: db, Views: viewBuilder, Logger: logger})
	if err != nil {
		return err
	}
	playlistService, err := playlists.NewService(playlists.ServiceConfig{Database: db, Views: viewBuilder, Logger: logger})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Users:         userService,
		Videos:        videoService,
		Comments:      commentService,
		Tweets:        tweetService,
		Likes:         likeService,
		Subscriptions: subscriptionService,
		Playlists:     playlistService,
		Tokens:        tokenManager,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
