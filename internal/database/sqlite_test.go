package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", nil); err == nil {
		testContext.Fatal("expected error for empty database path")
	}
}

func TestOpenSQLiteMigratesSchema(testContext *testing.T) {
	path := filepath.Join(testContext.TempDir(), "clipstream.db")
	db, err := OpenSQLite(path, nil)
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	for _, table := range []string{
		"users", "videos", "comments", "tweets",
		"likes", "subscriptions", "playlists", "playlist_videos", "watch_history",
	} {
		if !db.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestDuplicateLikeTranslatesToDuplicatedKey(testContext *testing.T) {
	path := filepath.Join(testContext.TempDir(), "clipstream.db")
	db, err := OpenSQLite(path, nil)
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	videoID := uuid.NewString()
	first := model.Like{ID: uuid.NewString(), LikedBy: "user-1", VideoID: &videoID}
	if err := db.Create(&first).Error; err != nil {
		testContext.Fatalf("failed to create like: %v", err)
	}

	second := model.Like{ID: uuid.NewString(), LikedBy: "user-1", VideoID: &videoID}
	err = db.Create(&second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		testContext.Fatalf("expected duplicated key error, got %v", err)
	}
}

func TestNullLikeTargetsDoNotCollide(testContext *testing.T) {
	path := filepath.Join(testContext.TempDir(), "clipstream.db")
	db, err := OpenSQLite(path, nil)
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	// same user liking a video and a tweet leaves the other target columns
	// NULL; the composite unique indexes must not treat those as duplicates.
	videoID := uuid.NewString()
	tweetID := uuid.NewString()
	likes := []model.Like{
		{ID: uuid.NewString(), LikedBy: "user-1", VideoID: &videoID},
		{ID: uuid.NewString(), LikedBy: "user-1", TweetID: &tweetID},
	}
	for index := range likes {
		if err := db.Create(&likes[index]).Error; err != nil {
			testContext.Fatalf("unexpected collision creating like %d: %v", index, err)
		}
	}
}
