// Package comments manages remarks attached to videos.
package comments

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
	opAdd    = "comments.add"
	opUpdate = "comments.update"
	opDelete = "comments.delete"
	opList   = "comments.list"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the comment service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Logger   *zap.Logger
}

// Service orchestrates comment mutations and viewer-relative listings.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	logger *zap.Logger
}

// NewService constructs the comment service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("comments.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("comments.service.new", "missing_views", errors.New("view builder is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, logger: logger}, nil
}

// Add creates a comment on an existing video.
func (s *Service) Add(ctx context.Context, videoID, actorID, content string) (model.Comment, error) {
	if actorID == "" {
		return model.Comment{}, fault.Unauthorized(opAdd, "missing_actor", "sign in to comment")
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.Comment{}, fault.Invalid(opAdd, "empty_content", "comment cannot be empty")
	}

	if err := s.requireVideo(ctx, opAdd, videoID); err != nil {
		return model.Comment{}, err
	}

	comment := model.Comment{
		ID:      uuid.NewString(),
		VideoID: videoID,
		OwnerID: actorID,
		Content: trimmed,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		s.logger.Error("comment insert failed", zap.String("video_id", videoID), zap.Error(err))
		return model.Comment{}, fault.Dependency(opAdd, "insert_failed", err)
	}
	return comment, nil
}

// Update edits a comment's content. Only the owner may update; the returned
// comment is re-fetched post-update state.
func (s *Service) Update(ctx context.Context, commentID, actorID, content string) (model.Comment, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.Comment{}, fault.Invalid(opUpdate, "empty_content", "comment cannot be empty")
	}

	comment, err := s.fetch(ctx, opUpdate, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if !ownership.CanMutate(comment, actorID) {
		return model.Comment{}, fault.Unauthorized(opUpdate, "not_owner", "only the comment owner can edit their comment")
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", commentID).
		Update("content", trimmed).Error; err != nil {
		s.logger.Error("comment update failed", zap.String("comment_id", commentID), zap.Error(err))
		return model.Comment{}, fault.Dependency(opUpdate, "update_failed", err)
	}

	return s.fetch(ctx, opUpdate, commentID)
}

// Delete removes a comment. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, commentID, actorID string) error {
	comment, err := s.fetch(ctx, opDelete, commentID)
	if err != nil {
		return err
	}
	if !ownership.CanMutate(comment, actorID) {
		return fault.Unauthorized(opDelete, "not_owner", "only the comment owner can delete their comment")
	}

	if err := s.db.WithContext(ctx).Delete(&model.Comment{}, "id = ?", commentID).Error; err != nil {
		s.logger.Error("comment delete failed", zap.String("comment_id", commentID), zap.Error(err))
		return fault.Dependency(opDelete, "delete_failed", err)
	}
	return nil
}

// View is a comment annotated with viewer-relative fields.
type View struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	Owner     views.OwnerSummary `json:"owner"`
	LikeCount int64              `json:"likeCount"`
	IsLiked   bool               `json:"isLiked"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ListForVideo returns the comments on a video, most recent first, each
// annotated for the viewer. An empty viewer id browses anonymously.
func (s *Service) ListForVideo(ctx context.Context, videoID, viewerID string) ([]View, error) {
	if err := s.requireVideo(ctx, opList, videoID); err != nil {
		return nil, err
	}

	var rows []model.Comment
	if err := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logger.Error("comment list failed", zap.String("video_id", videoID), zap.Error(err))
		return nil, fault.Dependency(opList, "query_failed", err)
	}

	commentIDs := make([]string, 0, len(rows))
	ownerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		commentIDs = append(commentIDs, row.ID)
		ownerIDs = append(ownerIDs, row.OwnerID)
	}

	owners, err := s.views.OwnerSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	likeCounts, err := s.views.LikeCounts(ctx, views.TargetComment, commentIDs)
	if err != nil {
		return nil, err
	}
	likedSet, err := s.views.LikedSet(ctx, views.TargetComment, commentIDs, viewerID)
	if err != nil {
		return nil, err
	}

	result := make([]View, 0, len(rows))
	for _, row := range rows {
		result = append(result, View{
			ID:        row.ID,
			Content:   row.Content,
			Owner:     owners[row.OwnerID],
			LikeCount: likeCounts[row.ID],
			IsLiked:   likedSet[row.ID],
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return result, nil
}

func (s *Service) fetch(ctx context.Context, operation, commentID string) (model.Comment, error) {
	var comment model.Comment
	err := s.db.WithContext(ctx).Where("id = ?", commentID).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Comment{}, fault.NotFound(operation, "missing_comment", "comment does not exist")
	}
	if err != nil {
		return model.Comment{}, fault.Dependency(operation, "comment_select_failed", err)
	}
	return comment, nil
}

func (s *Service) requireVideo(ctx context.Context, operation, videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return fault.Invalid(operation, "missing_video_id", "video id is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).Count(&count).Error; err != nil {
		return fault.Dependency(operation, "video_select_failed", err)
	}
	if count == 0 {
		return fault.NotFound(operation, "missing_video", "video does not exist")
	}
	return nil
}
