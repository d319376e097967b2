package comments

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

func openTestDatabase(testContext *testing.T) *gorm.DB {
	testContext.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(testContext.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.Comment{}, &model.Like{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(testContext *testing.T) (*Service, *gorm.DB) {
	testContext.Helper()
	db := openTestDatabase(testContext)
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

func TestAddCommentOnExistingVideo(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	author := seedUser(testContext, db, "author")
	video := seedVideo(testContext, db, owner.ID)

	comment, err := service.Add(context.Background(), video.ID, author.ID, "nice")
	if err != nil {
		testContext.Fatalf("failed to add comment: %v", err)
	}
	if comment.Content != "nice" {
		testContext.Fatalf("unexpected content: %s", comment.Content)
	}
	if comment.OwnerID != author.ID || comment.VideoID != video.ID {
		testContext.Fatalf("unexpected comment references: %+v", comment)
	}
}

func TestAddCommentValidations(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	video := seedVideo(testContext, db, owner.ID)

	if _, err := service.Add(context.Background(), video.ID, owner.ID, "   "); fault.KindOf(err) != fault.KindInvalidArgument {
		testContext.Fatalf("expected invalid argument for blank content, got %v", err)
	}
	if _, err := service.Add(context.Background(), uuid.NewString(), owner.ID, "hello"); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found for missing video, got %v", err)
	}
	if _, err := service.Add(context.Background(), video.ID, "", "hello"); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for anonymous actor, got %v", err)
	}
}

func TestUpdateCommentRequiresOwner(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	author := seedUser(testContext, db, "author")
	intruder := seedUser(testContext, db, "intruder")
	video := seedVideo(testContext, db, owner.ID)

	comment, err := service.Add(context.Background(), video.ID, author.ID, "first draft")
	if err != nil {
		testContext.Fatalf("failed to add comment: %v", err)
	}

	if _, err := service.Update(context.Background(), comment.ID, intruder.ID, "hijacked"); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for non-owner, got %v", err)
	}

	var persisted model.Comment
	if err := db.Take(&persisted, "id = ?", comment.ID).Error; err != nil {
		testContext.Fatalf("failed to reload comment: %v", err)
	}
	if persisted.Content != "first draft" {
		testContext.Fatal("denied update must not mutate the comment")
	}

	updated, err := service.Update(context.Background(), comment.ID, author.ID, "second draft")
	if err != nil {
		testContext.Fatalf("owner update failed: %v", err)
	}
	if updated.Content != "second draft" {
		testContext.Fatalf("expected post-update state, got %q", updated.Content)
	}
}

func TestDeleteCommentRequiresOwner(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	author := seedUser(testContext, db, "author")
	video := seedVideo(testContext, db, owner.ID)

	comment, err := service.Add(context.Background(), video.ID, author.ID, "temporary")
	if err != nil {
		testContext.Fatalf("failed to add comment: %v", err)
	}

	if err := service.Delete(context.Background(), comment.ID, owner.ID); fault.KindOf(err) != fault.KindUnauthorized {
		testContext.Fatalf("expected unauthorized for video owner deleting another's comment, got %v", err)
	}
	if err := service.Delete(context.Background(), comment.ID, author.ID); err != nil {
		testContext.Fatalf("owner delete failed: %v", err)
	}
	if err := service.Delete(context.Background(), comment.ID, author.ID); fault.KindOf(err) != fault.KindNotFound {
		testContext.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListForVideoAnnotatesViewer(testContext *testing.T) {
	service, db := newTestService(testContext)
	owner := seedUser(testContext, db, "owner")
	author := seedUser(testContext, db, "author")
	fan := seedUser(testContext, db, "fan")
	video := seedVideo(testContext, db, owner.ID)

	first, err := service.Add(context.Background(), video.ID, author.ID, "first")
	if err != nil {
		testContext.Fatalf("failed to add comment: %v", err)
	}
	if _, err := service.Add(context.Background(), video.ID, author.ID, "second"); err != nil {
		testContext.Fatalf("failed to add comment: %v", err)
	}

	like := model.Like{ID: uuid.NewString(), LikedBy: fan.ID, CommentID: &first.ID}
	if err := db.Create(&like).Error; err != nil {
		testContext.Fatalf("failed to seed like: %v", err)
	}

	listing, err := service.ListForVideo(context.Background(), video.ID, fan.ID)
	if err != nil {
		testContext.Fatalf("failed to list comments: %v", err)
	}
	if len(listing) != 2 {
		testContext.Fatalf("expected 2 comments, got %d", len(listing))
	}

	byContent := map[string]View{}
	for _, view := range listing {
		byContent[view.Content] = view
	}
	if byContent["first"].LikeCount != 1 || !byContent["first"].IsLiked {
		testContext.Fatalf("expected liked first comment, got %+v", byContent["first"])
	}
	if byContent["second"].LikeCount != 0 || byContent["second"].IsLiked {
		testContext.Fatalf("expected explicit zero count on second comment, got %+v", byContent["second"])
	}
	if byContent["first"].Owner.Username != "author" {
		testContext.Fatalf("expected owner summary, got %+v", byContent["first"].Owner)
	}

	anonymous, err := service.ListForVideo(context.Background(), video.ID, "")
	if err != nil {
		testContext.Fatalf("anonymous listing failed: %v", err)
	}
	for _, view := range anonymous {
		if view.IsLiked {
			testContext.Fatal("anonymous viewer must read isLiked=false")
		}
	}
}
