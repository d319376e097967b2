// Package model holds every persisted entity. Services assign uuid string
// identifiers at creation time; gorm maintains the timestamps.
package model

import "time"

// User is an account and, equivalently, a channel.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:36;not null"`
	Username     string    `gorm:"column:username;size:64;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	FullName     string    `gorm:"column:full_name;size:190;not null"`
	PasswordHash string    `gorm:"column:password_hash;size:128;not null"`
	AvatarURL    string    `gorm:"column:avatar_url;size:512;not null"`
	CoverURL     string    `gorm:"column:cover_url;size:512"`
	RefreshToken string    `gorm:"column:refresh_token;size:1024"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// Video is an uploaded media entry owned by a user.
type Video struct {
	ID           string    `gorm:"column:id;primaryKey;size:36;not null"`
	OwnerID      string    `gorm:"column:owner_id;size:36;not null;index"`
	VideoURL     string    `gorm:"column:video_url;size:512;not null"`
	ThumbnailURL string    `gorm:"column:thumbnail_url;size:512;not null"`
	Title        string    `gorm:"column:title;size:190;not null"`
	Description  string    `gorm:"column:description;type:text;not null"`
	Duration     float64   `gorm:"column:duration_s;not null;default:0"`
	Views        int64     `gorm:"column:views;not null;default:0"`
	Published    bool      `gorm:"column:published;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Video) TableName() string {
	return "videos"
}

// OwnedBy reports the owning user id.
func (v Video) OwnedBy() string {
	return v.OwnerID
}

// Comment is a remark attached to a video.
type Comment struct {
	ID        string    `gorm:"column:id;primaryKey;size:36;not null"`
	VideoID   string    `gorm:"column:video_id;size:36;not null;index"`
	OwnerID   string    `gorm:"column:owner_id;size:36;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// OwnedBy reports the owning user id.
func (c Comment) OwnedBy() string {
	return c.OwnerID
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `gorm:"column:id;primaryKey;size:36;not null"`
	OwnerID   string    `gorm:"column:owner_id;size:36;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Tweet) TableName() string {
	return "tweets"
}

// OwnedBy reports the owning user id.
func (t Tweet) OwnedBy() string {
	return t.OwnerID
}

// Like joins a user to exactly one of a video, a comment, or a tweet. The
// composite unique indexes keep at most one row per (liked_by, target) pair;
// NULL target columns do not collide under sqlite unique-index semantics.
type Like struct {
	ID        string    `gorm:"column:id;primaryKey;size:36;not null"`
	LikedBy   string    `gorm:"column:liked_by;size:36;not null;uniqueIndex:idx_like_video,priority:1;uniqueIndex:idx_like_comment,priority:1;uniqueIndex:idx_like_tweet,priority:1"`
	VideoID   *string   `gorm:"column:video_id;size:36;uniqueIndex:idx_like_video,priority:2"`
	CommentID *string   `gorm:"column:comment_id;size:36;uniqueIndex:idx_like_comment,priority:2"`
	TweetID   *string   `gorm:"column:tweet_id;size:36;uniqueIndex:idx_like_tweet,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "likes"
}

// Subscription joins a subscriber to a channel, at most once per pair.
type Subscription struct {
	ID           string    `gorm:"column:id;primaryKey;size:36;not null"`
	SubscriberID string    `gorm:"column:subscriber_id;size:36;not null;uniqueIndex:idx_sub_pair,priority:1"`
	ChannelID    string    `gorm:"column:channel_id;size:36;not null;uniqueIndex:idx_sub_pair,priority:2;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Playlist is a named, ordered collection of videos.
type Playlist struct {
	ID          string    `gorm:"column:id;primaryKey;size:36;not null"`
	OwnerID     string    `gorm:"column:owner_id;size:36;not null;index"`
	Name        string    `gorm:"column:name;size:190;not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Playlist) TableName() string {
	return "playlists"
}

// OwnedBy reports the owning user id.
func (p Playlist) OwnedBy() string {
	return p.OwnerID
}

// PlaylistVideo orders playlist membership. The unique pair index keeps a
// video from appearing twice in the same playlist.
type PlaylistVideo struct {
	PlaylistID string    `gorm:"column:playlist_id;primaryKey;size:36;not null;uniqueIndex:idx_playlist_video,priority:1"`
	VideoID    string    `gorm:"column:video_id;primaryKey;size:36;not null;uniqueIndex:idx_playlist_video,priority:2"`
	Position   int       `gorm:"column:position;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (PlaylistVideo) TableName() string {
	return "playlist_videos"
}

// WatchEntry records that a user watched a video. Re-watching refreshes
// WatchedAt instead of inserting a second row.
type WatchEntry struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:36;not null"`
	VideoID   string    `gorm:"column:video_id;primaryKey;size:36;not null"`
	WatchedAt time.Time `gorm:"column:watched_at;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (WatchEntry) TableName() string {
	return "watch_history"
}
