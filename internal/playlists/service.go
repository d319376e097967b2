// Package playlists manages named ordered collections of videos.
package playlists

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
	opCreate      = "playlists.create"
	opGet         = "playlists.get"
	opUpdate      = "playlists.update"
	opDelete      = "playlists.delete"
	opAddVideo    = "playlists.add_video"
	opRemoveVideo = "playlists.remove_video"
	opList        = "playlists.list"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the playlist service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Logger   *zap.Logger
}

// Service orchestrates playlist mutations and listings. Membership changes
// require the actor to own the playlist and the video independently.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	logger *zap.Logger
}

// NewService constructs the playlist service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("playlists.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("playlists.service.new", "missing_views", errors.New("view builder is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, logger: logger}, nil
}

// Create makes an empty playlist for the actor.
func (s *Service) Create(ctx context.Context, actorID, name, description string) (model.Playlist, error) {
	if actorID == "" {
		return model.Playlist{}, fault.Unauthorized(opCreate, "missing_actor", "sign in to create a playlist")
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return model.Playlist{}, fault.Invalid(opCreate, "empty_name", "playlist name is required")
	}

	playlist := model.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     actorID,
		Name:        trimmedName,
		Description: strings.TrimSpace(description),
	}
	if err := s.db.WithContext(ctx).Create(&playlist).Error; err != nil {
		s.logger.Error("playlist insert failed", zap.Error(err))
		return model.Playlist{}, fault.Dependency(opCreate, "insert_failed", err)
	}
	return playlist, nil
}

// VideoEntry is a playlist member in playlist order.
type VideoEntry struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	VideoURL     string             `json:"videoFile"`
	ThumbnailURL string             `json:"thumbnail"`
	Duration     float64            `json:"duration"`
	Views        int64              `json:"views"`
	Owner        views.OwnerSummary `json:"owner"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// View is a playlist with its ordered members and aggregate totals.
type View struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Owner         views.OwnerSummary `json:"owner"`
	Videos        []VideoEntry       `json:"videos"`
	TotalVideos   int                `json:"totalVideos"`
	TotalDuration float64            `json:"totalDuration"`
	TotalViews    int64              `json:"totalViews"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Get loads a playlist with its videos in position order plus the duration
// and view totals over the members.
func (s *Service) Get(ctx context.Context, playlistID string) (View, error) {
	playlist, err := s.fetch(ctx, opGet, playlistID)
	if err != nil {
		return View{}, err
	}

	var memberships []model.PlaylistVideo
	if err := s.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&memberships).Error; err != nil {
		return View{}, fault.Dependency(opGet, "membership_query_failed", err)
	}

	videoIDs := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		videoIDs = append(videoIDs, membership.VideoID)
	}

	videosByID := map[string]model.Video{}
	ownerIDs := []string{playlist.OwnerID}
	if len(videoIDs) > 0 {
		var videoRows []model.Video
		if err := s.db.WithContext(ctx).Where("id IN ?", videoIDs).Find(&videoRows).Error; err != nil {
			return View{}, fault.Dependency(opGet, "video_select_failed", err)
		}
		for _, row := range videoRows {
			videosByID[row.ID] = row
			ownerIDs = append(ownerIDs, row.OwnerID)
		}
	}

	owners, err := s.views.OwnerSummaries(ctx, ownerIDs)
	if err != nil {
		return View{}, err
	}

	view := View{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       owners[playlist.OwnerID],
		Videos:      []VideoEntry{},
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}
	for _, membership := range memberships {
		video, present := videosByID[membership.VideoID]
		if !present {
			// membership survived its video; skip rather than fail the view.
			continue
		}
		view.Videos = append(view.Videos, VideoEntry{
			ID:           video.ID,
			Title:        video.Title,
			Description:  video.Description,
			VideoURL:     video.VideoURL,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
			Views:        video.Views,
			Owner:        owners[video.OwnerID],
			CreatedAt:    video.CreatedAt,
		})
		view.TotalDuration += video.Duration
		view.TotalViews += video.Views
	}
	view.TotalVideos = len(view.Videos)
	return view, nil
}

// Update renames or redescribes a playlist; only the owner may update.
// Returns the post-update state.
func (s *Service) Update(ctx context.Context, playlistID, actorID, name, description string) (model.Playlist, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return model.Playlist{}, fault.Invalid(opUpdate, "empty_name", "playlist name is required")
	}

	playlist, err := s.fetch(ctx, opUpdate, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if !ownership.CanMutate(playlist, actorID) {
		return model.Playlist{}, fault.Unauthorized(opUpdate, "not_owner", "only the playlist owner can update their playlist")
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Playlist{}).
		Where("id = ?", playlistID).
		Updates(map[string]interface{}{
			"name":        trimmedName,
			"description": strings.TrimSpace(description),
		}).Error; err != nil {
		s.logger.Error("playlist update failed", zap.String("playlist_id", playlistID), zap.Error(err))
		return model.Playlist{}, fault.Dependency(opUpdate, "update_failed", err)
	}

	return s.fetch(ctx, opUpdate, playlistID)
}

// Delete removes a playlist and its membership rows; only the owner may
// delete.
func (s *Service) Delete(ctx context.Context, playlistID, actorID string) error {
	playlist, err := s.fetch(ctx, opDelete, playlistID)
	if err != nil {
		return err
	}
	if !ownership.CanMutate(playlist, actorID) {
		return fault.Unauthorized(opDelete, "not_owner", "only the playlist owner can delete their playlist")
	}

	if err := s.db.WithContext(ctx).Delete(&model.Playlist{}, "id = ?", playlistID).Error; err != nil {
		s.logger.Error("playlist delete failed", zap.String("playlist_id", playlistID), zap.Error(err))
		return fault.Dependency(opDelete, "delete_failed", err)
	}
	if err := s.db.WithContext(ctx).
		Delete(&model.PlaylistVideo{}, "playlist_id = ?", playlistID).Error; err != nil {
		s.logger.Error("playlist membership cleanup failed", zap.String("playlist_id", playlistID), zap.Error(err))
		return fault.Dependency(opDelete, "membership_cleanup_failed", err)
	}
	return nil
}

// AddVideo appends a video to a playlist. The actor must own both the
// playlist and the video; adding a video already present is a conflict.
func (s *Service) AddVideo(ctx context.Context, playlistID, videoID, actorID string) error {
	playlist, video, err := s.fetchPair(ctx, opAddVideo, playlistID, videoID)
	if err != nil {
		return err
	}
	if !ownership.CanMutateBoth(playlist, video, actorID) {
		return fault.Unauthorized(opAddVideo, "not_owner", "only the owner of both the playlist and the video can add it")
	}

	var maxPosition struct{ Position int }
	if err := s.db.WithContext(ctx).
		Model(&model.PlaylistVideo{}).
		Select("COALESCE(MAX(position), 0) AS position").
		Where("playlist_id = ?", playlistID).
		Scan(&maxPosition).Error; err != nil {
		return fault.Dependency(opAddVideo, "position_query_failed", err)
	}

	membership := model.PlaylistVideo{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Position:   maxPosition.Position + 1,
	}
	err = s.db.WithContext(ctx).Create(&membership).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fault.Conflict(opAddVideo, "already_present", "video is already in the playlist")
	}
	if err != nil {
		s.logger.Error("playlist membership insert failed", zap.String("playlist_id", playlistID), zap.Error(err))
		return fault.Dependency(opAddVideo, "insert_failed", err)
	}
	return nil
}

// RemoveVideo takes a video out of a playlist. The actor must own both.
func (s *Service) RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) error {
	playlist, video, err := s.fetchPair(ctx, opRemoveVideo, playlistID, videoID)
	if err != nil {
		return err
	}
	if !ownership.CanMutateBoth(playlist, video, actorID) {
		return fault.Unauthorized(opRemoveVideo, "not_owner", "only the owner of both the playlist and the video can remove it")
	}

	result := s.db.WithContext(ctx).
		Delete(&model.PlaylistVideo{}, "playlist_id = ? AND video_id = ?", playlistID, videoID)
	if result.Error != nil {
		s.logger.Error("playlist membership delete failed", zap.String("playlist_id", playlistID), zap.Error(result.Error))
		return fault.Dependency(opRemoveVideo, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.NotFound(opRemoveVideo, "missing_membership", "video is not in the playlist")
	}
	return nil
}

// ListForOwner returns a user's playlists, most recent first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]model.Playlist, error) {
	if ownerID == "" {
		return nil, fault.Invalid(opList, "missing_owner_id", "owner id is required")
	}
	var rows []model.Playlist
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logger.Error("playlist list failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fault.Dependency(opList, "query_failed", err)
	}
	return rows, nil
}

func (s *Service) fetch(ctx context.Context, operation, playlistID string) (model.Playlist, error) {
	var playlist model.Playlist
	err := s.db.WithContext(ctx).Where("id = ?", playlistID).Take(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Playlist{}, fault.NotFound(operation, "missing_playlist", "playlist does not exist")
	}
	if err != nil {
		return model.Playlist{}, fault.Dependency(operation, "playlist_select_failed", err)
	}
	return playlist, nil
}

func (s *Service) fetchPair(ctx context.Context, operation, playlistID, videoID string) (model.Playlist, model.Video, error) {
	playlist, err := s.fetch(ctx, operation, playlistID)
	if err != nil {
		return model.Playlist{}, model.Video{}, err
	}
	var video model.Video
	err = s.db.WithContext(ctx).Where("id = ?", videoID).Take(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Playlist{}, model.Video{}, fault.NotFound(operation, "missing_video", "video does not exist")
	}
	if err != nil {
		return model.Playlist{}, model.Video{}, fault.Dependency(operation, "video_select_failed", err)
	}
	return playlist, video, nil
}
