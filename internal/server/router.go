// Package server exposes the HTTP API. Handlers translate between the wire
// and the services; every response goes through the envelope in respond.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ClipStreamLabs/clipstream/backend/internal/auth"
	"github.com/ClipStreamLabs/clipstream/backend/internal/comments"
	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/likes"
	"github.com/ClipStreamLabs/clipstream/backend/internal/playlists"
	"github.com/ClipStreamLabs/clipstream/backend/internal/respond"
	"github.com/ClipStreamLabs/clipstream/backend/internal/subscriptions"
	"github.com/ClipStreamLabs/clipstream/backend/internal/tweets"
	"github.com/ClipStreamLabs/clipstream/backend/internal/users"
	"github.com/ClipStreamLabs/clipstream/backend/internal/videos"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorIDContextKey = "clipstream_actor_id"

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingService      = errors.New("service dependency required")
)

// Dependencies carries every service the HTTP layer fronts.
type Dependencies struct {
	Users         *users.Service
	Videos        *videos.Service
	Comments      *comments.Service
	Tweets        *tweets.Service
	Likes         *likes.Service
	Subscriptions *subscriptions.Service
	Playlists     *playlists.Service
	Tokens        *auth.TokenManager
	Logger        *zap.Logger
}

// NewHTTPHandler builds the router with every route mounted under /api/v1.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil || deps.Videos == nil || deps.Comments == nil ||
		deps.Tweets == nil || deps.Likes == nil || deps.Subscriptions == nil ||
		deps.Playlists == nil {
		return nil, errMissingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{deps: deps, logger: logger}

	api := router.Group("/api/v1")

	// reads are open to anonymous viewers; the actor id is attached when a
	// valid bearer token is present and left empty otherwise.
	open := api.Group("/")
	open.Use(handler.attachActorIfPresent)
	open.GET("/videos", handler.handleListVideos)
	open.GET("/videos/:videoId", handler.handleGetVideo)
	open.GET("/videos/:videoId/comments", handler.handleListComments)
	open.GET("/channels/:username", handler.handleChannelProfile)
	open.GET("/users/:userId/tweets", handler.handleListTweets)
	open.GET("/users/:userId/playlists", handler.handleListPlaylists)
	open.GET("/users/:userId/subscriptions", handler.handleSubscribedChannels)
	open.GET("/playlists/:playlistId", handler.handleGetPlaylist)
	open.GET("/subscriptions/:channelId/subscribers", handler.handleSubscribers)

	api.POST("/users/register", handler.handleRegister)
	api.POST("/users/login", handler.handleLogin)
	api.POST("/users/refresh", handler.handleRefresh)

	protected := api.Group("/")
	protected.Use(handler.requireActor)
	protected.POST("/users/logout", handler.handleLogout)
	protected.POST("/users/password", handler.handleChangePassword)
	protected.GET("/users/me", handler.handleCurrentUser)
	protected.PATCH("/users/me", handler.handleUpdateAccount)
	protected.PATCH("/users/me/avatar", handler.handleUpdateAvatar)
	protected.PATCH("/users/me/cover", handler.handleUpdateCover)
	protected.GET("/users/history", handler.handleWatchHistory)

	protected.POST("/videos", handler.handleCreateVideo)
	protected.PATCH("/videos/:videoId", handler.handleUpdateVideo)
	protected.DELETE("/videos/:videoId", handler.handleDeleteVideo)
	protected.PATCH("/videos/:videoId/publish", handler.handleTogglePublish)

	protected.POST("/videos/:videoId/comments", handler.handleAddComment)
	protected.PATCH("/comments/:commentId", handler.handleUpdateComment)
	protected.DELETE("/comments/:commentId", handler.handleDeleteComment)

	protected.POST("/tweets", handler.handleCreateTweet)
	protected.PATCH("/tweets/:tweetId", handler.handleUpdateTweet)
	protected.DELETE("/tweets/:tweetId", handler.handleDeleteTweet)

	protected.GET("/likes/videos", handler.handleLikedVideos)
	protected.POST("/likes/videos/:videoId", handler.handleToggleVideoLike)
	protected.POST("/likes/comments/:commentId", handler.handleToggleCommentLike)
	protected.POST("/likes/tweets/:tweetId", handler.handleToggleTweetLike)

	protected.POST("/subscriptions/:channelId", handler.handleToggleSubscription)

	protected.POST("/playlists", handler.handleCreatePlaylist)
	protected.PATCH("/playlists/:playlistId", handler.handleUpdatePlaylist)
	protected.DELETE("/playlists/:playlistId", handler.handleDeletePlaylist)
	protected.POST("/playlists/:playlistId/videos/:videoId", handler.handleAddPlaylistVideo)
	protected.DELETE("/playlists/:playlistId/videos/:videoId", handler.handleRemovePlaylistVideo)

	return router, nil
}

type httpHandler struct {
	deps   Dependencies
	logger *zap.Logger
}

func (h *httpHandler) actorID(c *gin.Context) string {
	return c.GetString(actorIDContextKey)
}

// requireActor rejects requests without a valid bearer token.
func (h *httpHandler) requireActor(c *gin.Context) {
	subject, ok := h.bearerSubject(c)
	if !ok {
		respond.AbortUnauthorized(c, "a valid bearer token is required")
		return
	}
	c.Set(actorIDContextKey, subject)
	c.Next()
}

// attachActorIfPresent resolves the bearer token when one is supplied and
// otherwise lets the request through as anonymous. A malformed token on an
// open route reads as anonymous rather than failing the request.
func (h *httpHandler) attachActorIfPresent(c *gin.Context) {
	if subject, ok := h.bearerSubject(c); ok {
		c.Set(actorIDContextKey, subject)
	}
	c.Next()
}

// badRequest tags a malformed wire payload before it reaches any service.
func badRequest(operation, reason, message string) error {
	return fault.Invalid(operation, reason, message)
}

func (h *httpHandler) bearerSubject(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	subject, err := h.deps.Tokens.ValidateAccessToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		return "", false
	}
	return subject, true
}
