// Package tweets manages short text posts.
package tweets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/ownership"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opCreate = "tweets.create"
	opUpdate = "tweets.update"
	opDelete = "tweets.delete"
	opList   = "tweets.list"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the tweet service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Logger   *zap.Logger
}

// Service orchestrates tweet mutations and viewer-relative listings.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	logger *zap.Logger
}

// NewService constructs the tweet service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("tweets.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("tweets.service.new", "missing_views", errors.New("view builder is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, logger: logger}, nil
}

// Create posts a new tweet for the actor.
func (s *Service) Create(ctx context.Context, actorID, content string) (model.Tweet, error) {
	if actorID == "" {
		return model.Tweet{}, fault.Unauthorized(opCreate, "missing_actor", "sign in to tweet")
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.Tweet{}, fault.Invalid(opCreate, "empty_content", "tweet cannot be empty")
	}

	tweet := model.Tweet{ID: uuid.NewString(), OwnerID: actorID, Content: trimmed}
	if err := s.db.WithContext(ctx).Create(&tweet).Error; err != nil {
		s.logger.Error("tweet insert failed", zap.Error(err))
		return model.Tweet{}, fault.Dependency(opCreate, "insert_failed", err)
	}
	return tweet, nil
}

// Update edits a tweet's content; only the owner may update. Returns the
// post-update state.
func (s *Service) Update(ctx context.Context, tweetID, actorID, content string) (model.Tweet, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.Tweet{}, fault.Invalid(opUpdate, "empty_content", "tweet cannot be empty")
	}

	tweet, err := s.fetch(ctx, opUpdate, tweetID)
	if err != nil {
		return model.Tweet{}, err
	}
	if !ownership.CanMutate(tweet, actorID) {
		return model.Tweet{}, fault.Unauthorized(opUpdate, "not_owner", "only the tweet owner can update their tweet")
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Tweet{}).
		Where("id = ?", tweetID).
		Update("content", trimmed).Error; err != nil {
		s.logger.Error("tweet update failed", zap.String("tweet_id", tweetID), zap.Error(err))
		return model.Tweet{}, fault.Dependency(opUpdate, "update_failed", err)
	}

	return s.fetch(ctx, opUpdate, tweetID)
}

// Delete removes a tweet; only the owner may delete.
func (s *Service) Delete(ctx context.Context, tweetID, actorID string) error {
	tweet, err := s.fetch(ctx, opDelete, tweetID)
	if err != nil {
		return err
	}
	if !ownership.CanMutate(tweet, actorID) {
		return fault.Unauthorized(opDelete, "not_owner", "only the tweet owner can delete their tweet")
	}

	if err := s.db.WithContext(ctx).Delete(&model.Tweet{}, "id = ?", tweetID).Error; err != nil {
		s.logger.Error("tweet delete failed", zap.String("tweet_id", tweetID), zap.Error(err))
		return fault.Dependency(opDelete, "delete_failed", err)
	}
	return nil
}

// View is a tweet annotated with viewer-relative fields.
type View struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	Owner     views.OwnerSummary `json:"owner"`
	LikeCount int64              `json:"likeCount"`
	IsLiked   bool               `json:"isLiked"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ListForUser returns a user's tweets, most recent first, annotated for the
// viewer.
func (s *Service) ListForUser(ctx context.Context, userID, viewerID string) ([]View, error) {
	var userCount int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, fault.Dependency(opList, "user_select_failed", err)
	}
	if userCount == 0 {
		return nil, fault.NotFound(opList, "missing_user", "user does not exist")
	}

	var rows []model.Tweet
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logger.Error("tweet list failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fault.Dependency(opList, "query_failed", err)
	}

	tweetIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		tweetIDs = append(tweetIDs, row.ID)
	}

	owner, err := s.views.OwnerSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	likeCounts, err := s.views.LikeCounts(ctx, views.TargetTweet, tweetIDs)
	if err != nil {
		return nil, err
	}
	likedSet, err := s.views.LikedSet(ctx, views.TargetTweet, tweetIDs, viewerID)
	if err != nil {
		return nil, err
	}

	result := make([]View, 0, len(rows))
	for _, row := range rows {
		result = append(result, View{
			ID:        row.ID,
			Content:   row.Content,
			Owner:     owner,
			LikeCount: likeCounts[row.ID],
			IsLiked:   likedSet[row.ID],
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return result, nil
}

func (s *Service) fetch(ctx context.Context, operation, tweetID string) (model.Tweet, error) {
	var tweet model.Tweet
	err := s.db.WithContext(ctx).Where("id = ?", tweetID).Take(&tweet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Tweet{}, fault.NotFound(operation, "missing_tweet", "tweet does not exist")
	}
	if err != nil {
		return model.Tweet{}, fault.Dependency(operation, "tweet_select_failed", err)
	}
	return tweet, nil
}
