package playlists

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestService(testContext *testing.T) (*Service, *gorm.DB) {
	testContext.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(testContext.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.Playlist{}, &model.PlaylistVideo{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}
	builder, err := views.NewBuilder(views.BuilderConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to build views: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db, Views: builder})
	if err != nil {
		testContext.Fatalf("failed to build service: %v", err)
	}
	return service, db
}

func seedUser(testContext *testing.T, db *gorm.DB, username string) model.User {
	testContext.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "User " + username,
		PasswordHash: "x",
		AvatarURL:    "https://cdn.example.com/" + username + ".png",
	}
	if err := db.Create(&user).Error; err != nil {
		testContext.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedVideo(testContext *testing.T, db *gorm.DB, ownerID, title string, duration float64, viewCount int64) model.Video {
	testContext.Helper()
	video := model.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     "https://cdn.example.com/v.mp4",
		ThumbnailURL: "https://cdn.example.com/v.png",
		Title:        title,
		Description:  "about things",
		Duration:     duration,
		Views:        viewCount,
		Published:    true,
	}
	if err := db.Create(&video).Error; err != nil {
		testContext.Fatalf("failed to seed video: %v", err)
	}
	return video
}

func TestCreatePlaylist(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")

	playlist, err := service.Create(context.Background(), owner.ID, "  watch later  ", " queue ")
	if err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if playlist.Name != "watch later" || playlist.Description != "queue" {
		testContext.Fatalf("expected trimmed fields, got %+v", playlist)
	}

	if _, err := service.Create(context.Background(), owner.ID, "   ", ""); fault.KindOf(err) != fault.KindInvalidArgument {
		testContext.Fatalf("expected invalid argument for blank name, got %v", err)
	}
	if _, err := service.Create(context.Background(), "", "mix", ""); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for anonymous actor, got %v", err)
	}
}

func TestAddVideoRequiresOwningBoth(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	other := seedUser(testContext, db, "other")
	ownVideo := seedVideo(testContext, db, owner.ID, "mine", 10, 0)
	foreignVideo := seedVideo(testContext, db, other.ID, "theirs", 10, 0)

	playlist, err := service.Create(context.Background(), owner.ID, "mix", "")
	if err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}

	// owning the playlist alone is not enough.
	if err := service.AddVideo(context.Background(), playlist.ID, foreignVideo.ID, owner.ID); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for foreign video, got %v", err)
	}
	// owning the video alone is not enough either.
	if err := service.AddVideo(context.Background(), playlist.ID, foreignVideo.ID, other.ID); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for foreign playlist, got %v", err)
	}

	if err := service.AddVideo(context.Background(), playlist.ID, ownVideo.ID, owner.ID); err != nil {
		testContext.Fatalf("owner add failed: %v", err)
	}
	if err := service.AddVideo(context.Background(), playlist.ID, ownVideo.ID, owner.ID); fault.KindOf(err) != fault.KindConflict {
		testContext.Fatalf("expected conflict for duplicate add, got %v", err)
	}
}

func TestGetReturnsOrderedVideosAndTotals(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	first := seedVideo(testContext, db, owner.ID, "first", 30, 100)
	second := seedVideo(testContext, db, owner.ID, "second", 45.5, 40)

	playlist, err := service.Create(context.Background(), owner.ID, "mix", "favorites")
	if err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if err := service.AddVideo(context.Background(), playlist.ID, first.ID, owner.ID); err != nil {
		testContext.Fatalf("add failed: %v", err)
	}
	if err := service.AddVideo(context.Background(), playlist.ID, second.ID, owner.ID); err != nil {
		testContext.Fatalf("add failed: %v", err)
	}

	view, err := service.Get(context.Background(), playlist.ID)
	if err != nil {
		testContext.Fatalf("get failed: %v", err)
	}
	if view.TotalVideos != 2 {
		testContext.Fatalf("expected 2 videos, got %d", view.TotalVideos)
	}
	if view.Videos[0].Title != "first" || view.Videos[1].Title != "second" {
		testContext.Fatalf("expected insertion order, got %+v", view.Videos)
	}
	if view.TotalDuration != 75.5 {
		testContext.Fatalf("expected total duration 75.5, got %v", view.TotalDuration)
	}
	if view.TotalViews != 140 {
		testContext.Fatalf("expected total views 140, got %d", view.TotalViews)
	}
	if view.Owner.Username != "owner" {
		testContext.Fatalf("expected owner summary, got %+v", view.Owner)
	}

	if _, err := service.Get(context.Background(), uuid.NewString()); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for missing playlist, got %v", err)
	}
}

func TestRemoveVideo(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	intruder := seedUser(testContext, db, "intruder")
	video := seedVideo(testContext, db, owner.ID, "clip", 10, 0)

	playlist, err := service.Create(context.Background(), owner.ID, "mix", "")
	if err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if err := service.AddVideo(context.Background(), playlist.ID, video.ID, owner.ID); err != nil {
		testContext.Fatalf("add failed: %v", err)
	}

	if err := service.RemoveVideo(context.Background(), playlist.ID, video.ID, intruder.ID); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized remove, got %v", err)
	}
	if err := service.RemoveVideo(context.Background(), playlist.ID, video.ID, owner.ID); err != nil {
		testContext.Fatalf("owner remove failed: %v", err)
	}
	if err := service.RemoveVideo(context.Background(), playlist.ID, video.ID, owner.ID); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for absent membership, got %v", err)
	}
}

func TestUpdateAndDeleteEnforceOwnership(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	intruder := seedUser(testContext, db, "intruder")
	video := seedVideo(testContext, db, owner.ID, "clip", 10, 0)

	playlist, err := service.Create(context.Background(), owner.ID, "mix", "")
	if err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if err := service.AddVideo(context.Background(), playlist.ID, video.ID, owner.ID); err != nil {
		testContext.Fatalf("add failed: %v", err)
	}

	if _, err := service.Update(context.Background(), playlist.ID, intruder.ID, "stolen", ""); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized update, got %v", err)
	}
	updated, err := service.Update(context.Background(), playlist.ID, owner.ID, "renamed", "new words")
	if err != nil {
		testContext.Fatalf("owner update failed: %v", err)
	}
	if updated.Name != "renamed" || updated.Description != "new words" {
		testContext.Fatalf("expected post-update state, got %+v", updated)
	}

	if err := service.Delete(context.Background(), playlist.ID, intruder.ID); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized delete, got %v", err)
	}
	if err := service.Delete(context.Background(), playlist.ID, owner.ID); err != nil {
		testContext.Fatalf("owner delete failed: %v", err)
	}

	var membershipCount int64
	if err := db.Model(&model.PlaylistVideo{}).Where("playlist_id = ?", playlist.ID).Count(&membershipCount).Error; err != nil {
		testContext.Fatalf("failed to count memberships: %v", err)
	}
	if membershipCount != 0 {
		testContext.Fatal("expected membership rows to be cleaned up with the playlist")
	}
}

func TestListForOwner(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	other := seedUser(testContext, db, "other")

	if _, err := service.Create(context.Background(), owner.ID, "mix one", ""); err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if _, err := service.Create(context.Background(), owner.ID, "mix two", ""); err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}
	if _, err := service.Create(context.Background(), other.ID, "not mine", ""); err != nil {
		testContext.Fatalf("failed to create playlist: %v", err)
	}

	listing, err := service.ListForOwner(context.Background(), owner.ID)
	if err != nil {
		testContext.Fatalf("list failed: %v", err)
	}
	if len(listing) != 2 {
		testContext.Fatalf("expected 2 playlists, got %d", len(listing))
	}
}
