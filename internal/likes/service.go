// Package likes manages the like join records and their toggle semantics.
package likes

import (
	"context"
	"errors"
	"time"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opToggleVideo   = "likes.toggle_video"
	opToggleComment = "likes.toggle_comment"
	opToggleTweet   = "likes.toggle_tweet"
	opLikedVideos   = "likes.liked_videos"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the like service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Logger   *zap.Logger
}

// Service flips like records between absent and present per (actor, target)
// pair.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	logger *zap.Logger
}

// NewService constructs the like service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("likes.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("likes.service.new", "missing_views", errors.New("view builder is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, logger: logger}, nil
}

// ToggleVideo flips the actor's like on a video and reports the resulting
// state.
func (s *Service) ToggleVideo(ctx context.Context, videoID, actorID string) (bool, error) {
	if err := s.requireTarget(ctx, opToggleVideo, &model.Video{}, videoID, "video does not exist"); err != nil {
		return false, err
	}
	return s.toggle(ctx, opToggleVideo, actorID, model.Like{VideoID: &videoID}, "video_id", videoID)
}

// ToggleComment flips the actor's like on a comment and reports the
// resulting state.
func (s *Service) ToggleComment(ctx context.Context, commentID, actorID string) (bool, error) {
	if err := s.requireTarget(ctx, opToggleComment, &model.Comment{}, commentID, "comment does not exist"); err != nil {
		return false, err
	}
	return s.toggle(ctx, opToggleComment, actorID, model.Like{CommentID: &commentID}, "comment_id", commentID)
}

// ToggleTweet flips the actor's like on a tweet and reports the resulting
// state.
func (s *Service) ToggleTweet(ctx context.Context, tweetID, actorID string) (bool, error) {
	if err := s.requireTarget(ctx, opToggleTweet, &model.Tweet{}, tweetID, "tweet does not exist"); err != nil {
		return false, err
	}
	return s.toggle(ctx, opToggleTweet, actorID, model.Like{TweetID: &tweetID}, "tweet_id", tweetID)
}

// toggle is the single decision point for the ABSENT/PRESENT state machine.
// The read is advisory only: the composite unique index owns the invariant,
// and a duplicate-key on insert means a concurrent toggle already created
// the record, which reads as "present" rather than a failure.
func (s *Service) toggle(ctx context.Context, operation, actorID string, record model.Like, targetColumn, targetID string) (bool, error) {
	if actorID == "" {
		return false, fault.Unauthorized(operation, "missing_actor", "sign in to like")
	}

	var existing model.Like
	err := s.db.WithContext(ctx).
		Where("liked_by = ?", actorID).
		Where(targetColumn+" = ?", targetID).
		Take(&existing).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Delete(&model.Like{}, "id = ?", existing.ID).Error; err != nil {
			s.logger.Error("like delete failed", zap.String("like_id", existing.ID), zap.Error(err))
			return false, fault.Dependency(operation, "delete_failed", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		record.ID = uuid.NewString()
		record.LikedBy = actorID
		created, err := s.insert(ctx, &record)
		if err != nil {
			s.logger.Error("like insert failed", zap.String("target_id", targetID), zap.Error(err))
			return false, fault.Dependency(operation, "insert_failed", err)
		}
		if !created {
			s.logger.Debug("like already present", zap.String("target_id", targetID), zap.String("actor_id", actorID))
		}
		return true, nil
	default:
		return false, fault.Dependency(operation, "select_failed", err)
	}
}

// insert reports whether a fresh record was created; a duplicate-key result
// means another toggle won the race and the like is already present.
func (s *Service) insert(ctx context.Context, record *model.Like) (bool, error) {
	err := s.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LikedVideoView is a liked video with its owner's restricted projection.
type LikedVideoView struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	VideoURL     string             `json:"videoFile"`
	ThumbnailURL string             `json:"thumbnail"`
	Duration     float64            `json:"duration"`
	Views        int64              `json:"views"`
	Owner        views.OwnerSummary `json:"owner"`
	LikedAt      time.Time          `json:"likedAt"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// LikedVideos lists the videos the actor has liked, most recently liked
// first.
func (s *Service) LikedVideos(ctx context.Context, actorID string) ([]LikedVideoView, error) {
	if actorID == "" {
		return nil, fault.Unauthorized(opLikedVideos, "missing_actor", "sign in to view liked videos")
	}

	var likeRows []model.Like
	if err := s.db.WithContext(ctx).
		Where("liked_by = ? AND video_id IS NOT NULL", actorID).
		Order("created_at DESC").
		Find(&likeRows).Error; err != nil {
		s.logger.Error("liked videos query failed", zap.String("actor_id", actorID), zap.Error(err))
		return nil, fault.Dependency(opLikedVideos, "query_failed", err)
	}

	videoIDs := make([]string, 0, len(likeRows))
	likedAt := make(map[string]time.Time, len(likeRows))
	for _, row := range likeRows {
		videoIDs = append(videoIDs, *row.VideoID)
		likedAt[*row.VideoID] = row.CreatedAt
	}
	if len(videoIDs) == 0 {
		return []LikedVideoView{}, nil
	}

	var videoRows []model.Video
	if err := s.db.WithContext(ctx).Where("id IN ?", videoIDs).Find(&videoRows).Error; err != nil {
		return nil, fault.Dependency(opLikedVideos, "video_select_failed", err)
	}
	videosByID := make(map[string]model.Video, len(videoRows))
	ownerIDs := make([]string, 0, len(videoRows))
	for _, row := range videoRows {
		videosByID[row.ID] = row
		ownerIDs = append(ownerIDs, row.OwnerID)
	}

	owners, err := s.views.OwnerSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	result := make([]LikedVideoView, 0, len(videoIDs))
	for _, videoID := range videoIDs {
		video, present := videosByID[videoID]
		if !present {
			// like row survived its video; skip rather than fail the listing.
			continue
		}
		result = append(result, LikedVideoView{
			ID:           video.ID,
			Title:        video.Title,
			Description:  video.Description,
			VideoURL:     video.VideoURL,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
			Views:        video.Views,
			Owner:        owners[video.OwnerID],
			LikedAt:      likedAt[video.ID],
			CreatedAt:    video.CreatedAt,
		})
	}
	return result, nil
}

func (s *Service) requireTarget(ctx context.Context, operation string, targetModel interface{}, targetID, missingMessage string) error {
	if targetID == "" {
		return fault.Invalid(operation, "missing_target_id", "target id is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(targetModel).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return fault.Dependency(operation, "target_select_failed", err)
	}
	if count == 0 {
		return fault.NotFound(operation, "missing_target", missingMessage)
	}
	return nil
}
