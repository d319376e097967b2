// Package subscriptions manages the subscriber/channel join records.
package subscriptions

import (
	"context"
	"errors"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opToggle      = "subscriptions.toggle"
	opSubscribers = "subscriptions.subscribers"
	opChannels    = "subscriptions.channels"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the subscription service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Logger   *zap.Logger
}

// Service flips subscriptions between absent and present per
// (subscriber, channel) pair and builds the channel-level social views.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	logger *zap.Logger
}

// NewService constructs the subscription service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("subscriptions.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("subscriptions.service.new", "missing_views", errors.New("view builder is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, logger: logger}, nil
}

// Toggle flips the actor's subscription to a channel and reports the
// resulting state. The unique (subscriber, channel) index owns the
// at-most-one invariant; a duplicate-key insert reads as already-subscribed.
func (s *Service) Toggle(ctx context.Context, channelID, actorID string) (bool, error) {
	if actorID == "" {
		return false, fault.Unauthorized(opToggle, "missing_actor", "sign in to subscribe")
	}
	if err := s.requireUser(ctx, opToggle, channelID, "no such channel exists"); err != nil {
		return false, err
	}

	var existing model.Subscription
	err := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", actorID, channelID).
		Take(&existing).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Delete(&model.Subscription{}, "id = ?", existing.ID).Error; err != nil {
			s.logger.Error("subscription delete failed", zap.String("subscription_id", existing.ID), zap.Error(err))
			return false, fault.Dependency(opToggle, "delete_failed", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := model.Subscription{ID: uuid.NewString(), SubscriberID: actorID, ChannelID: channelID}
		return s.insertTolerant(ctx, opToggle, &record)
	default:
		return false, fault.Dependency(opToggle, "select_failed", err)
	}
}

// insertTolerant creates the subscription, reading a duplicate-key result as
// "already subscribed": a concurrent toggle won the race and the pair exists.
func (s *Service) insertTolerant(ctx context.Context, operation string, record *model.Subscription) (bool, error) {
	err := s.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, nil
	}
	if err != nil {
		s.logger.Error("subscription insert failed", zap.String("channel_id", record.ChannelID), zap.Error(err))
		return false, fault.Dependency(operation, "insert_failed", err)
	}
	return true, nil
}

// SubscriberView is one subscriber of a channel, annotated with that
// subscriber's own reach and whether the channel follows them back.
type SubscriberView struct {
	Subscriber       views.OwnerSummary `json:"subscriber"`
	SubscriberCount  int64              `json:"subscriberCount"`
	SubscribedToBack bool               `json:"subscribedBack"`
}

// Subscribers lists the users subscribed to a channel. The nested flags are
// computed relative to the subject channel: how many subscribers each
// subscriber has, and whether the channel is subscribed back to them.
func (s *Service) Subscribers(ctx context.Context, channelID string) ([]SubscriberView, error) {
	if err := s.requireUser(ctx, opSubscribers, channelID, "no such channel exists"); err != nil {
		return nil, err
	}

	var rows []model.Subscription
	if err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logger.Error("subscriber query failed", zap.String("channel_id", channelID), zap.Error(err))
		return nil, fault.Dependency(opSubscribers, "query_failed", err)
	}

	subscriberIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		subscriberIDs = append(subscriberIDs, row.SubscriberID)
	}

	summaries, err := s.views.OwnerSummaries(ctx, subscriberIDs)
	if err != nil {
		return nil, err
	}
	reach, err := s.views.SubscriberCounts(ctx, subscriberIDs)
	if err != nil {
		return nil, err
	}
	followedBack, err := s.views.SubscribedSet(ctx, channelID, subscriberIDs)
	if err != nil {
		return nil, err
	}

	result := make([]SubscriberView, 0, len(rows))
	for _, row := range rows {
		result = append(result, SubscriberView{
			Subscriber:       summaries[row.SubscriberID],
			SubscriberCount:  reach[row.SubscriberID],
			SubscribedToBack: followedBack[row.SubscriberID],
		})
	}
	return result, nil
}

// SubscribedChannels lists the channels a user follows, restricted
// projections only.
func (s *Service) SubscribedChannels(ctx context.Context, userID string) ([]views.OwnerSummary, error) {
	if err := s.requireUser(ctx, opChannels, userID, "no such user exists"); err != nil {
		return nil, err
	}

	var rows []model.Subscription
	if err := s.db.WithContext(ctx).
		Where("subscriber_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logger.Error("subscribed channels query failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fault.Dependency(opChannels, "query_failed", err)
	}

	channelIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		channelIDs = append(channelIDs, row.ChannelID)
	}
	summaries, err := s.views.OwnerSummaries(ctx, channelIDs)
	if err != nil {
		return nil, err
	}

	result := make([]views.OwnerSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, summaries[row.ChannelID])
	}
	return result, nil
}

func (s *Service) requireUser(ctx context.Context, operation, userID, missingMessage string) error {
	if userID == "" {
		return fault.Invalid(operation, "missing_user_id", "user id is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fault.Dependency(operation, "user_select_failed", err)
	}
	if count == 0 {
		return fault.NotFound(operation, "missing_user", missingMessage)
	}
	return nil
}
