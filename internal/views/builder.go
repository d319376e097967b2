// Package views computes viewer-relative projections over the social graph:
// like counts, subscriber counts, isLiked/isSubscribed flags, and restricted
// owner summaries. The same document looks different depending on who asks;
// everything viewer-dependent lives here instead of on the entity model.
package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"gorm.io/gorm"
)

// TargetKind names the entity a like points at.
type TargetKind string

const (
	// TargetVideo selects likes on videos.
	TargetVideo TargetKind = "video"
	// TargetComment selects likes on comments.
	TargetComment TargetKind = "comment"
	// TargetTweet selects likes on tweets.
	TargetTweet TargetKind = "tweet"
)

const opViews = "views.build"

var errMissingDatabase = errors.New("database handle is required")

// likeColumn maps a target kind onto its likes-table column. Unknown kinds
// are a programming error surfaced as an explicit failure, never an
// interpolated query.
func likeColumn(kind TargetKind) (string, error) {
	switch kind {
	case TargetVideo:
		return "video_id", nil
	case TargetComment:
		return "comment_id", nil
	case TargetTweet:
		return "tweet_id", nil
	default:
		return "", fmt.Errorf("unknown like target kind %q", kind)
	}
}

// OwnerSummary is the restricted public projection of a user embedded into
// resource views. Credential and token fields are never part of it.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// BuilderConfig carries the builder dependencies.
type BuilderConfig struct {
	Database *gorm.DB
}

// Builder answers aggregate and viewer-relative questions against the store.
type Builder struct {
	db *gorm.DB
}

// NewBuilder constructs a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency(opViews, "missing_database", errMissingDatabase)
	}
	return &Builder{db: cfg.Database}, nil
}

// OwnerSummaries loads restricted projections for the given user ids.
func (b *Builder) OwnerSummaries(ctx context.Context, userIDs []string) (map[string]OwnerSummary, error) {
	summaries := make(map[string]OwnerSummary, len(userIDs))
	if len(userIDs) == 0 {
		return summaries, nil
	}

	var rows []model.User
	if err := b.db.WithContext(ctx).
		Select("id", "username", "full_name", "avatar_url").
		Where("id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		return nil, fault.Dependency(opViews, "owner_lookup_failed", err)
	}
	for _, row := range rows {
		summaries[row.ID] = OwnerSummary{
			ID:        row.ID,
			Username:  row.Username,
			FullName:  row.FullName,
			AvatarURL: row.AvatarURL,
		}
	}
	return summaries, nil
}

// OwnerSummary loads the restricted projection of a single user.
func (b *Builder) OwnerSummary(ctx context.Context, userID string) (OwnerSummary, error) {
	summaries, err := b.OwnerSummaries(ctx, []string{userID})
	if err != nil {
		return OwnerSummary{}, err
	}
	return summaries[userID], nil
}

// LikeCount counts likes pointing at one target. An empty join yields 0.
func (b *Builder) LikeCount(ctx context.Context, kind TargetKind, targetID string) (int64, error) {
	column, err := likeColumn(kind)
	if err != nil {
		return 0, fault.Dependency(opViews, "bad_target_kind", err)
	}
	var count int64
	if err := b.db.WithContext(ctx).
		Model(&model.Like{}).
		Where(column+" = ?", targetID).
		Count(&count).Error; err != nil {
		return 0, fault.Dependency(opViews, "like_count_failed", err)
	}
	return count, nil
}

// LikeCounts counts likes for a batch of targets. Every requested id is
// present in the result, zero-valued when no likes exist.
func (b *Builder) LikeCounts(ctx context.Context, kind TargetKind, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(targetIDs))
	for _, targetID := range targetIDs {
		counts[targetID] = 0
	}
	if len(targetIDs) == 0 {
		return counts, nil
	}

	column, err := likeColumn(kind)
	if err != nil {
		return nil, fault.Dependency(opViews, "bad_target_kind", err)
	}

	type countRow struct {
		TargetID string
		Total    int64
	}
	var rows []countRow
	if err := b.db.WithContext(ctx).
		Model(&model.Like{}).
		Select(column+" AS target_id, COUNT(*) AS total").
		Where(column+" IN ?", targetIDs).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fault.Dependency(opViews, "like_counts_failed", err)
	}
	for _, row := range rows {
		counts[row.TargetID] = row.Total
	}
	return counts, nil
}

// IsLiked reports whether the viewer has liked the target. An absent viewer
// browses anonymously and always reads false.
func (b *Builder) IsLiked(ctx context.Context, kind TargetKind, targetID, viewerID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	liked, err := b.LikedSet(ctx, kind, []string{targetID}, viewerID)
	if err != nil {
		return false, err
	}
	return liked[targetID], nil
}

// LikedSet reports which of the targets the viewer has liked. Anonymous
// viewers read an empty set without a store round-trip.
func (b *Builder) LikedSet(ctx context.Context, kind TargetKind, targetIDs []string, viewerID string) (map[string]bool, error) {
	liked := make(map[string]bool, len(targetIDs))
	if viewerID == "" || len(targetIDs) == 0 {
		return liked, nil
	}

	column, err := likeColumn(kind)
	if err != nil {
		return nil, fault.Dependency(opViews, "bad_target_kind", err)
	}

	var ids []string
	if err := b.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("liked_by = ?", viewerID).
		Where(column+" IN ?", targetIDs).
		Pluck(column, &ids).Error; err != nil {
		return nil, fault.Dependency(opViews, "liked_set_failed", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// SubscriberCount counts subscriptions treating the subject as the channel.
func (b *Builder) SubscriberCount(ctx context.Context, channelID string) (int64, error) {
	var count int64
	if err := b.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error; err != nil {
		return 0, fault.Dependency(opViews, "subscriber_count_failed", err)
	}
	return count, nil
}

// SubscriberCounts counts subscribers for a batch of channels; every
// requested channel id is present in the result.
func (b *Builder) SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(channelIDs))
	for _, channelID := range channelIDs {
		counts[channelID] = 0
	}
	if len(channelIDs) == 0 {
		return counts, nil
	}

	type countRow struct {
		ChannelID string
		Total     int64
	}
	var rows []countRow
	if err := b.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Select("channel_id, COUNT(*) AS total").
		Where("channel_id IN ?", channelIDs).
		Group("channel_id").
		Scan(&rows).Error; err != nil {
		return nil, fault.Dependency(opViews, "subscriber_counts_failed", err)
	}
	for _, row := range rows {
		counts[row.ChannelID] = row.Total
	}
	return counts, nil
}

// SubscribedToCount counts subscriptions treating the subject as the
// subscriber.
func (b *Builder) SubscribedToCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := b.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fault.Dependency(opViews, "subscribed_to_count_failed", err)
	}
	return count, nil
}

// IsSubscribed reports whether the viewer follows the channel. Anonymous
// viewers and a viewer asking about their own channel read false, regardless
// of what rows exist.
func (b *Builder) IsSubscribed(ctx context.Context, viewerID, channelID string) (bool, error) {
	if viewerID == "" || viewerID == channelID {
		return false, nil
	}
	var count int64
	if err := b.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", viewerID, channelID).
		Count(&count).Error; err != nil {
		return false, fault.Dependency(opViews, "is_subscribed_failed", err)
	}
	return count > 0, nil
}

// SubscribedSet reports which of the channels the viewer follows.
func (b *Builder) SubscribedSet(ctx context.Context, viewerID string, channelIDs []string) (map[string]bool, error) {
	subscribed := make(map[string]bool, len(channelIDs))
	if viewerID == "" || len(channelIDs) == 0 {
		return subscribed, nil
	}

	var ids []string
	if err := b.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ?", viewerID).
		Where("channel_id IN ?", channelIDs).
		Pluck("channel_id", &ids).Error; err != nil {
		return nil, fault.Dependency(opViews, "subscribed_set_failed", err)
	}
	for _, id := range ids {
		if id == viewerID {
			continue
		}
		subscribed[id] = true
	}
	return subscribed, nil
}
