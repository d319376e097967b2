// Package videos manages uploaded media entries: their lifecycle, their
// enriched viewer-relative projections, and the cascade that keeps the social
// graph consistent when a video goes away.
package videos

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/media"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/ownership"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	opCreate  = "videos.create"
	opGet     = "videos.get"
	opList    = "videos.list"
	opUpdate  = "videos.update"
	opPublish = "videos.toggle_publish"
	opDelete  = "videos.delete"
	opHistory = "videos.watch_history"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// sortColumns whitelists the orderable fields; anything else falls back to
// recency so caller input never reaches the ORDER BY clause verbatim.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration_s",
	"title":     "title",
}

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the video service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Media    media.Store
	Logger   *zap.Logger
}

// Service orchestrates video lifecycle and read models.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	media  media.Store
	logger *zap.Logger
}

// NewService constructs the video service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("videos.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("videos.service.new", "missing_views", errors.New("view builder is required"))
	}
	if cfg.Media == nil {
		return nil, fault.Dependency("videos.service.new", "missing_media", errors.New("media store is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, media: cfg.Media, logger: logger}, nil
}

// CreateInput carries the upload form for a new video.
type CreateInput struct {
	Title       string
	Description string
	Duration    float64
	VideoFile   *multipart.FileHeader
	Thumbnail   *multipart.FileHeader
}

// Create stores the media assets and records the video for the actor. A new
// video starts published.
func (s *Service) Create(ctx context.Context, actorID string, input CreateInput) (model.Video, error) {
	if actorID == "" {
		return model.Video{}, fault.Unauthorized(opCreate, "missing_actor", "sign in to upload a video")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Video{}, fault.Invalid(opCreate, "empty_title", "video title is required")
	}
	if input.VideoFile == nil {
		return model.Video{}, fault.Invalid(opCreate, "missing_video_file", "video file is required")
	}
	if input.Thumbnail == nil {
		return model.Video{}, fault.Invalid(opCreate, "missing_thumbnail", "thumbnail is required")
	}

	videoURL, err := s.media.Save(input.VideoFile)
	if err != nil {
		s.logger.Error("video asset store failed", zap.Error(err))
		return model.Video{}, fault.Dependency(opCreate, "video_store_failed", err)
	}
	thumbnailURL, err := s.media.Save(input.Thumbnail)
	if err != nil {
		s.logger.Error("thumbnail store failed", zap.Error(err))
		// the orphaned video asset is useless without its record.
		_ = s.media.Delete(videoURL)
		return model.Video{}, fault.Dependency(opCreate, "thumbnail_store_failed", err)
	}

	video := model.Video{
		ID:           uuid.NewString(),
		OwnerID:      actorID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Duration:     input.Duration,
		Published:    true,
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		s.logger.Error("video insert failed", zap.Error(err))
		_ = s.media.Delete(videoURL)
		_ = s.media.Delete(thumbnailURL)
		return model.Video{}, fault.Dependency(opCreate, "insert_failed", err)
	}
	return video, nil
}

// ChannelSummary is a video owner annotated with channel-level social fields.
type ChannelSummary struct {
	views.OwnerSummary
	SubscriberCount int64 `json:"subscriberCount"`
	IsSubscribed    bool  `json:"isSubscribed"`
}

// View is a video enriched for a particular viewer.
type View struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	VideoURL     string         `json:"videoFile"`
	ThumbnailURL string         `json:"thumbnail"`
	Duration     float64        `json:"duration"`
	Views        int64          `json:"views"`
	Published    bool           `json:"isPublished"`
	Owner        ChannelSummary `json:"owner"`
	LikeCount    int64          `json:"likeCount"`
	IsLiked      bool           `json:"isLiked"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Get loads one video enriched for the viewer, bumps its view counter, and
// records the watch in the viewer's history. Anonymous viewers read the
// video with false social flags and leave no history.
func (s *Service) Get(ctx context.Context, videoID, viewerID string) (View, error) {
	video, err := s.fetch(ctx, opGet, videoID)
	if err != nil {
		return View{}, err
	}

	// counter increment happens in SQL so concurrent plays never lose an
	// update to a read-modify-write.
	if err := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		s.logger.Error("view increment failed", zap.String("video_id", videoID), zap.Error(err))
		return View{}, fault.Dependency(opGet, "view_increment_failed", err)
	}
	video.Views++

	if viewerID != "" {
		entry := model.WatchEntry{UserID: viewerID, VideoID: videoID, WatchedAt: time.Now().UTC()}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"watched_at": entry.WatchedAt}),
			}).
			Create(&entry).Error; err != nil {
			s.logger.Error("watch history upsert failed", zap.String("video_id", videoID), zap.Error(err))
			return View{}, fault.Dependency(opGet, "history_upsert_failed", err)
		}
	}

	return s.buildView(ctx, opGet, video, viewerID)
}

// ListOptions narrows and orders a video listing.
type ListOptions struct {
	OwnerID   string
	Query     string
	SortBy    string
	Ascending bool
	Page      int
	PageSize  int
}

// Page is one page of a listing with its total across all pages.
type Page struct {
	Videos   []View `json:"videos"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// List returns published videos matching the options, annotated for the
// viewer.
func (s *Service) List(ctx context.Context, options ListOptions, viewerID string) (Page, error) {
	page := options.Page
	if page < 1 {
		page = 1
	}
	pageSize := options.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&model.Video{})
	// owners browsing their own channel see drafts; everyone else sees only
	// published videos.
	if options.OwnerID == "" || options.OwnerID != viewerID {
		query = query.Where("published = ?", true)
	}
	if options.OwnerID != "" {
		query = query.Where("owner_id = ?", options.OwnerID)
	}
	if trimmed := strings.TrimSpace(options.Query); trimmed != "" {
		pattern := "%" + trimmed + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, fault.Dependency(opList, "count_failed", err)
	}

	column, known := sortColumns[options.SortBy]
	if !known {
		column = "created_at"
	}
	direction := "DESC"
	if options.Ascending {
		direction = "ASC"
	}

	var rows []model.Video
	if err := query.
		Order(column + " " + direction).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		s.logger.Error("video list failed", zap.Error(err))
		return Page{}, fault.Dependency(opList, "query_failed", err)
	}

	listing, err := s.buildViews(ctx, opList, rows, viewerID)
	if err != nil {
		return Page{}, err
	}
	return Page{Videos: listing, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateInput carries the editable video fields; a nil Thumbnail keeps the
// current one.
type UpdateInput struct {
	Title       string
	Description string
	Thumbnail   *multipart.FileHeader
}

// Update edits a video's metadata and optionally replaces its thumbnail;
// only the owner may update. Returns the post-update state.
func (s *Service) Update(ctx context.Context, videoID, actorID string, input UpdateInput) (model.Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Video{}, fault.Invalid(opUpdate, "empty_title", "video title is required")
	}

	video, err := s.fetch(ctx, opUpdate, videoID)
	if err != nil {
		return model.Video{}, err
	}
	if !ownership.CanMutate(video, actorID) {
		return model.Video{}, fault.Unauthorized(opUpdate, "not_owner", "only the video owner can update their video")
	}

	changes := map[string]interface{}{
		"title":       title,
		"description": strings.TrimSpace(input.Description),
	}
	previousThumbnail := ""
	if input.Thumbnail != nil {
		thumbnailURL, err := s.media.Save(input.Thumbnail)
		if err != nil {
			s.logger.Error("thumbnail store failed", zap.String("video_id", videoID), zap.Error(err))
			return model.Video{}, fault.Dependency(opUpdate, "thumbnail_store_failed", err)
		}
		changes["thumbnail_url"] = thumbnailURL
		previousThumbnail = video.ThumbnailURL
	}

	if err := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("id = ?", videoID).
		Updates(changes).Error; err != nil {
		s.logger.Error("video update failed", zap.String("video_id", videoID), zap.Error(err))
		return model.Video{}, fault.Dependency(opUpdate, "update_failed", err)
	}
	if previousThumbnail != "" {
		if err := s.media.Delete(previousThumbnail); err != nil {
			s.logger.Warn("stale thumbnail removal failed", zap.String("video_id", videoID), zap.Error(err))
		}
	}

	return s.fetch(ctx, opUpdate, videoID)
}

// TogglePublish flips the publish flag; only the owner may toggle. Returns
// the resulting state.
func (s *Service) TogglePublish(ctx context.Context, videoID, actorID string) (bool, error) {
	video, err := s.fetch(ctx, opPublish, videoID)
	if err != nil {
		return false, err
	}
	if !ownership.CanMutate(video, actorID) {
		return false, fault.Unauthorized(opPublish, "not_owner", "only the video owner can change publish state")
	}

	next := !video.Published
	if err := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("id = ?", videoID).
		Update("published", next).Error; err != nil {
		s.logger.Error("publish toggle failed", zap.String("video_id", videoID), zap.Error(err))
		return false, fault.Dependency(opPublish, "update_failed", err)
	}
	return next, nil
}

// Delete removes a video and cascades through its dependents: media assets,
// then likes, then comments, then playlist memberships and watch history.
// The primary delete commits first; a cascade failure afterwards surfaces as
// a dependency fault naming the stage that failed, leaving residual rows for
// the listing paths to skip.
func (s *Service) Delete(ctx context.Context, videoID, actorID string) error {
	video, err := s.fetch(ctx, opDelete, videoID)
	if err != nil {
		return err
	}
	if !ownership.CanMutate(video, actorID) {
		return fault.Unauthorized(opDelete, "not_owner", "only the video owner can delete their video")
	}

	if err := s.db.WithContext(ctx).Delete(&model.Video{}, "id = ?", videoID).Error; err != nil {
		s.logger.Error("video delete failed", zap.String("video_id", videoID), zap.Error(err))
		return fault.Dependency(opDelete, "delete_failed", err)
	}

	if err := s.media.Delete(video.VideoURL); err != nil {
		s.logger.Warn("video asset removal failed", zap.String("video_id", videoID), zap.Error(err))
	}
	if err := s.media.Delete(video.ThumbnailURL); err != nil {
		s.logger.Warn("thumbnail removal failed", zap.String("video_id", videoID), zap.Error(err))
	}

	var commentIDs []string
	if err := s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("video_id = ?", videoID).
		Pluck("id", &commentIDs).Error; err != nil {
		return fault.Dependency(opDelete, "comment_lookup_failed", err)
	}

	likeCascade := s.db.WithContext(ctx).Where("video_id = ?", videoID)
	if len(commentIDs) > 0 {
		likeCascade = likeCascade.Or("comment_id IN ?", commentIDs)
	}
	if err := likeCascade.Delete(&model.Like{}).Error; err != nil {
		s.logger.Error("like cascade failed", zap.String("video_id", videoID), zap.Error(err))
		return fault.Dependency(opDelete, "like_cascade_failed", err)
	}

	if err := s.db.WithContext(ctx).Delete(&model.Comment{}, "video_id = ?", videoID).Error; err != nil {
		s.logger.Error("comment cascade failed", zap.String("video_id", videoID), zap.Error(err))
		return fault.Dependency(opDelete, "comment_cascade_failed", err)
	}
	if err := s.db.WithContext(ctx).Delete(&model.PlaylistVideo{}, "video_id = ?", videoID).Error; err != nil {
		s.logger.Error("playlist cascade failed", zap.String("video_id", videoID), zap.Error(err))
		return fault.Dependency(opDelete, "playlist_cascade_failed", err)
	}
	if err := s.db.WithContext(ctx).Delete(&model.WatchEntry{}, "video_id = ?", videoID).Error; err != nil {
		s.logger.Error("history cascade failed", zap.String("video_id", videoID), zap.Error(err))
		return fault.Dependency(opDelete, "history_cascade_failed", err)
	}
	return nil
}

// HistoryEntry is a watched video with when it was last watched.
type HistoryEntry struct {
	Video     View      `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// WatchHistory lists the actor's watched videos, most recently watched
// first. Videos deleted since watching are skipped.
func (s *Service) WatchHistory(ctx context.Context, actorID string) ([]HistoryEntry, error) {
	if actorID == "" {
		return nil, fault.Unauthorized(opHistory, "missing_actor", "sign in to view watch history")
	}

	var entries []model.WatchEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", actorID).
		Order("watched_at DESC").
		Find(&entries).Error; err != nil {
		s.logger.Error("watch history query failed", zap.String("user_id", actorID), zap.Error(err))
		return nil, fault.Dependency(opHistory, "query_failed", err)
	}

	videoIDs := make([]string, 0, len(entries))
	watchedAt := make(map[string]time.Time, len(entries))
	for _, entry := range entries {
		videoIDs = append(videoIDs, entry.VideoID)
		watchedAt[entry.VideoID] = entry.WatchedAt
	}
	if len(videoIDs) == 0 {
		return []HistoryEntry{}, nil
	}

	var rows []model.Video
	if err := s.db.WithContext(ctx).Where("id IN ?", videoIDs).Find(&rows).Error; err != nil {
		return nil, fault.Dependency(opHistory, "video_select_failed", err)
	}
	rowsByID := make(map[string]model.Video, len(rows))
	for _, row := range rows {
		rowsByID[row.ID] = row
	}

	ordered := make([]model.Video, 0, len(rows))
	for _, videoID := range videoIDs {
		if row, present := rowsByID[videoID]; present {
			ordered = append(ordered, row)
		}
	}
	listing, err := s.buildViews(ctx, opHistory, ordered, actorID)
	if err != nil {
		return nil, err
	}

	result := make([]HistoryEntry, 0, len(listing))
	for _, view := range listing {
		result = append(result, HistoryEntry{Video: view, WatchedAt: watchedAt[view.ID]})
	}
	return result, nil
}

func (s *Service) buildView(ctx context.Context, operation string, video model.Video, viewerID string) (View, error) {
	listing, err := s.buildViews(ctx, operation, []model.Video{video}, viewerID)
	if err != nil {
		return View{}, err
	}
	return listing[0], nil
}

// buildViews annotates a batch of videos for the viewer with a fixed number
// of store round-trips regardless of batch size.
func (s *Service) buildViews(ctx context.Context, operation string, rows []model.Video, viewerID string) ([]View, error) {
	videoIDs := make([]string, 0, len(rows))
	ownerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		videoIDs = append(videoIDs, row.ID)
		ownerIDs = append(ownerIDs, row.OwnerID)
	}

	owners, err := s.views.OwnerSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	subscriberCounts, err := s.views.SubscriberCounts(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	subscribedSet, err := s.views.SubscribedSet(ctx, viewerID, ownerIDs)
	if err != nil {
		return nil, err
	}
	likeCounts, err := s.views.LikeCounts(ctx, views.TargetVideo, videoIDs)
	if err != nil {
		return nil, err
	}
	likedSet, err := s.views.LikedSet(ctx, views.TargetVideo, videoIDs, viewerID)
	if err != nil {
		return nil, err
	}

	result := make([]View, 0, len(rows))
	for _, row := range rows {
		result = append(result, View{
			ID:           row.ID,
			Title:        row.Title,
			Description:  row.Description,
			VideoURL:     row.VideoURL,
			ThumbnailURL: row.ThumbnailURL,
			Duration:     row.Duration,
			Views:        row.Views,
			Published:    row.Published,
			Owner: ChannelSummary{
				OwnerSummary:    owners[row.OwnerID],
				SubscriberCount: subscriberCounts[row.OwnerID],
				IsSubscribed:    subscribedSet[row.OwnerID],
			},
			LikeCount: likeCounts[row.ID],
			IsLiked:   likedSet[row.ID],
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return result, nil
}

func (s *Service) fetch(ctx context.Context, operation, videoID string) (model.Video, error) {
	var video model.Video
	err := s.db.WithContext(ctx).Where("id = ?", videoID).Take(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Video{}, fault.NotFound(operation, "missing_video", "video does not exist")
	}
	if err != nil {
		return model.Video{}, fault.Dependency(operation, "video_select_failed", err)
	}
	return video, nil
}
