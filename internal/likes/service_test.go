package likes

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
	if err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.Comment{}, &model.Tweet{}, &model.Like{}); err != nil {
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

func seedVideo(testContext *testing.T, db *gorm.DB, ownerID string) model.Video {
	testContext.Helper()
	video := model.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     "https://cdn.example.com/v.mp4",
		ThumbnailURL: "https://cdn.example.com/v.png",
		Title:        "a video",
		Description:  "about things",
		Published:    true,
	}
	if err := db.Create(&video).Error; err != nil {
		testContext.Fatalf("failed to seed video: %v", err)
	}
	return video
}

func countLikes(testContext *testing.T, db *gorm.DB, column, targetID string) int64 {
	testContext.Helper()
	var count int64
	if err := db.Model(&model.Like{}).Where(column+" = ?", targetID).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count likes: %v", err)
	}
	return count
}

func TestToggleVideoLikeRoundTrip(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	fan := seedUser(testContext, db, "fan")
	video := seedVideo(testContext, db, owner.ID)

	liked, err := service.ToggleVideo(context.Background(), video.ID, fan.ID)
	if err != nil {
		testContext.Fatalf("first toggle failed: %v", err)
	}
	if !liked {
		testContext.Fatal("first toggle must report liked=true")
	}
	if countLikes(testContext, db, "video_id", video.ID) != 1 {
		testContext.Fatal("expected exactly one like record")
	}

	liked, err = service.ToggleVideo(context.Background(), video.ID, fan.ID)
	if err != nil {
		testContext.Fatalf("second toggle failed: %v", err)
	}
	if liked {
		testContext.Fatal("second toggle must report liked=false")
	}
	if countLikes(testContext, db, "video_id", video.ID) != 0 {
		testContext.Fatal("expected the like record to be removed")
	}
}

func TestToggleRequiresExistingTarget(testContext *testing.T) {
	service, db := newTestService(testContext)
	fan := seedUser(testContext, db, "fan")

	if _, err := service.ToggleVideo(context.Background(), uuid.NewString(), fan.ID); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for missing video, got %v", err)
	}
	if _, err := service.ToggleComment(context.Background(), uuid.NewString(), fan.ID); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for missing comment, got %v", err)
	}
	if _, err := service.ToggleTweet(context.Background(), uuid.NewString(), fan.ID); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for missing tweet, got %v", err)
	}
}

func TestToggleRequiresActor(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	video := seedVideo(testContext, db, owner.ID)

	if _, err := service.ToggleVideo(context.Background(), video.ID, ""); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for anonymous toggle, got %v", err)
	}
}

func TestInsertTreatsDuplicateAsPresent(testContext *testing.T) {
	// Two concurrent toggles can both observe ABSENT and race to create; the
	// unique (liked_by, video_id) index lets exactly one insert win and the
	// loser must read the outcome as "present", not as a failure.
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	fan := seedUser(testContext, db, "fan")
	video := seedVideo(testContext, db, owner.ID)

	winner := model.Like{ID: uuid.NewString(), LikedBy: fan.ID, VideoID: &video.ID}
	if err := db.Create(&winner).Error; err != nil {
		testContext.Fatalf("failed to seed winning like: %v", err)
	}

	loser := model.Like{ID: uuid.NewString(), LikedBy: fan.ID, VideoID: &video.ID}
	created, err := service.insert(context.Background(), &loser)
	if err != nil {
		testContext.Fatalf("duplicate insert must not error: %v", err)
	}
	if created {
		testContext.Fatal("duplicate insert must report not-created")
	}
	if countLikes(testContext, db, "video_id", video.ID) != 1 {
		testContext.Fatal("expected exactly one like record after the race")
	}
}

func TestToggleCommentAndTweetLikes(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	fan := seedUser(testContext, db, "fan")
	video := seedVideo(testContext, db, owner.ID)

	comment := model.Comment{ID: uuid.NewString(), VideoID: video.ID, OwnerID: owner.ID, Content: "hi"}
	if err := db.Create(&comment).Error; err != nil {
		testContext.Fatalf("failed to seed comment: %v", err)
	}
	tweet := model.Tweet{ID: uuid.NewString(), OwnerID: owner.ID, Content: "hello"}
	if err := db.Create(&tweet).Error; err != nil {
		testContext.Fatalf("failed to seed tweet: %v", err)
	}

	if liked, err := service.ToggleComment(context.Background(), comment.ID, fan.ID); err != nil || !liked {
		testContext.Fatalf("comment toggle failed: liked=%v err=%v", liked, err)
	}
	if liked, err := service.ToggleTweet(context.Background(), tweet.ID, fan.ID); err != nil || !liked {
		testContext.Fatalf("tweet toggle failed: liked=%v err=%v", liked, err)
	}
	if countLikes(testContext, db, "comment_id", comment.ID) != 1 {
		testContext.Fatal("expected one comment like")
	}
	if countLikes(testContext, db, "tweet_id", tweet.ID) != 1 {
		testContext.Fatal("expected one tweet like")
	}
}

func TestLikedVideosListing(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	fan := seedUser(testContext, db, "fan")
	first := seedVideo(testContext, db, owner.ID)
	second := seedVideo(testContext, db, owner.ID)

	if _, err := service.ToggleVideo(context.Background(), first.ID, fan.ID); err != nil {
		testContext.Fatalf("toggle failed: %v", err)
	}
	if _, err := service.ToggleVideo(context.Background(), second.ID, fan.ID); err != nil {
		testContext.Fatalf("toggle failed: %v", err)
	}

	listing, err := service.LikedVideos(context.Background(), fan.ID)
	if err != nil {
		testContext.Fatalf("liked videos failed: %v", err)
	}
	if len(listing) != 2 {
		testContext.Fatalf("expected 2 liked videos, got %d", len(listing))
	}
	for _, view := range listing {
		if view.Owner.Username != "owner" {
			testContext.Fatalf("expected owner summary, got %+v", view.Owner)
		}
	}

	if _, err := service.LikedVideos(context.Background(), ""); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for anonymous listing, got %v", err)
	}
}
