// Package users manages accounts: registration, credentials, sessions, and
// the channel profile read model.
package users

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ClipStreamLabs/clipstream/backend/internal/auth"
	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/ClipStreamLabs/clipstream/backend/internal/media"
	"github.com/ClipStreamLabs/clipstream/backend/internal/model"
	"github.com/ClipStreamLabs/clipstream/backend/internal/views"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	opRegister       = "users.register"
	opLogin          = "users.login"
	opRefresh        = "users.refresh"
	opLogout         = "users.logout"
	opChangePassword = "users.change_password"
	opCurrent        = "users.current"
	opUpdateAccount  = "users.update_account"
	opUpdateAvatar   = "users.update_avatar"
	opUpdateCover    = "users.update_cover"
	opChannel        = "users.channel_profile"
)

const minPasswordLength = 8

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the user service.
type ServiceConfig struct {
	Database *gorm.DB
	Views    *views.Builder
	Tokens   *auth.TokenManager
	Media    media.Store
	Logger   *zap.Logger
}

// Service owns the account lifecycle. Password hashes and refresh tokens
// never leave it; every read path projects through PublicUser.
type Service struct {
	db     *gorm.DB
	views  *views.Builder
	tokens *auth.TokenManager
	media  media.Store
	logger *zap.Logger
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fault.Dependency("users.service.new", "missing_database", errMissingDatabase)
	}
	if cfg.Views == nil {
		return nil, fault.Dependency("users.service.new", "missing_views", errors.New("view builder is required"))
	}
	if cfg.Tokens == nil {
		return nil, fault.Dependency("users.service.new", "missing_tokens", errors.New("token manager is required"))
	}
	if cfg.Media == nil {
		return nil, fault.Dependency("users.service.new", "missing_media", errors.New("media store is required"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, views: cfg.Views, tokens: cfg.Tokens, media: cfg.Media, logger: logger}, nil
}

// PublicUser is the account projection safe to return to its owner.
// Credential and token columns are never part of it.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatar"`
	CoverURL  string    `json:"coverImage"`
	CreatedAt time.Time `json:"createdAt"`
}

func publicUser(user model.User) PublicUser {
	return PublicUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		CoverURL:  user.CoverURL,
		CreatedAt: user.CreatedAt,
	}
}

// RegisterInput carries the signup form.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   *multipart.FileHeader
	Cover    *multipart.FileHeader
}

// Register creates an account. Usernames are stored lowercase; a taken
// username or email is a conflict.
func (s *Service) Register(ctx context.Context, input RegisterInput) (PublicUser, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	switch {
	case username == "":
		return PublicUser{}, fault.Invalid(opRegister, "missing_username", "username is required")
	case email == "" || !strings.Contains(email, "@"):
		return PublicUser{}, fault.Invalid(opRegister, "bad_email", "a valid email is required")
	case fullName == "":
		return PublicUser{}, fault.Invalid(opRegister, "missing_full_name", "full name is required")
	case len(input.Password) < minPasswordLength:
		return PublicUser{}, fault.Invalid(opRegister, "weak_password", "password must be at least 8 characters")
	case input.Avatar == nil:
		return PublicUser{}, fault.Invalid(opRegister, "missing_avatar", "avatar image is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return PublicUser{}, fault.Dependency(opRegister, "hash_failed", err)
	}

	avatarURL, err := s.media.Save(input.Avatar)
	if err != nil {
		s.logger.Error("avatar store failed", zap.Error(err))
		return PublicUser{}, fault.Dependency(opRegister, "avatar_store_failed", err)
	}
	coverURL := ""
	if input.Cover != nil {
		coverURL, err = s.media.Save(input.Cover)
		if err != nil {
			s.logger.Error("cover store failed", zap.Error(err))
			_ = s.media.Delete(avatarURL)
			return PublicUser{}, fault.Dependency(opRegister, "cover_store_failed", err)
		}
	}

	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		AvatarURL:    avatarURL,
		CoverURL:     coverURL,
	}
	err = s.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		_ = s.media.Delete(avatarURL)
		if coverURL != "" {
			_ = s.media.Delete(coverURL)
		}
		return PublicUser{}, fault.Conflict(opRegister, "identity_taken", "username or email is already in use")
	}
	if err != nil {
		s.logger.Error("user insert failed", zap.Error(err))
		return PublicUser{}, fault.Dependency(opRegister, "insert_failed", err)
	}
	return publicUser(user), nil
}

// Session is an authenticated session: the account plus its token pair.
type Session struct {
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"`
}

// Login authenticates by username or email and opens a session. The fresh
// refresh token replaces whatever the account held before.
func (s *Service) Login(ctx context.Context, identifier, password string) (Session, error) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	if needle == "" || password == "" {
		return Session{}, fault.Invalid(opLogin, "missing_credentials", "username or email and password are required")
	}

	var user model.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", needle, needle).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// same message as a wrong password so probes learn nothing.
		return Session{}, fault.Unauthorized(opLogin, "bad_credentials", "invalid credentials")
	}
	if err != nil {
		return Session{}, fault.Dependency(opLogin, "user_select_failed", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, fault.Unauthorized(opLogin, "bad_credentials", "invalid credentials")
	}

	return s.openSession(ctx, opLogin, user)
}

// Refresh rotates the session: the presented refresh token must match the
// stored one, and both tokens are reissued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return Session{}, fault.Unauthorized(opRefresh, "bad_token", "refresh token is invalid or expired")
	}

	user, err := s.fetch(ctx, opRefresh, userID)
	if err != nil {
		return Session{}, err
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		// a rotated-out token is as good as forged.
		return Session{}, fault.Unauthorized(opRefresh, "stale_token", "refresh token is invalid or expired")
	}

	return s.openSession(ctx, opRefresh, user)
}

// Logout closes the actor's session by discarding the stored refresh token.
func (s *Service) Logout(ctx context.Context, actorID string) error {
	if actorID == "" {
		return fault.Unauthorized(opLogout, "missing_actor", "sign in first")
	}
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", actorID).
		Update("refresh_token", "").Error; err != nil {
		s.logger.Error("logout failed", zap.String("user_id", actorID), zap.Error(err))
		return fault.Dependency(opLogout, "update_failed", err)
	}
	return nil
}

// ChangePassword swaps the actor's password after verifying the current one.
// The stored refresh token is discarded so old sessions cannot continue.
func (s *Service) ChangePassword(ctx context.Context, actorID, current, next string) error {
	if actorID == "" {
		return fault.Unauthorized(opChangePassword, "missing_actor", "sign in first")
	}
	if len(next) < minPasswordLength {
		return fault.Invalid(opChangePassword, "weak_password", "password must be at least 8 characters")
	}

	user, err := s.fetch(ctx, opChangePassword, actorID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return fault.Unauthorized(opChangePassword, "bad_password", "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fault.Dependency(opChangePassword, "hash_failed", err)
	}
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", actorID).
		Updates(map[string]interface{}{"password_hash": string(hash), "refresh_token": ""}).Error; err != nil {
		s.logger.Error("password update failed", zap.String("user_id", actorID), zap.Error(err))
		return fault.Dependency(opChangePassword, "update_failed", err)
	}
	return nil
}

// CurrentUser returns the actor's own account projection.
func (s *Service) CurrentUser(ctx context.Context, actorID string) (PublicUser, error) {
	if actorID == "" {
		return PublicUser{}, fault.Unauthorized(opCurrent, "missing_actor", "sign in first")
	}
	user, err := s.fetch(ctx, opCurrent, actorID)
	if err != nil {
		return PublicUser{}, err
	}
	return publicUser(user), nil
}

// UpdateAccount edits the actor's full name and email.
func (s *Service) UpdateAccount(ctx context.Context, actorID, fullName, email string) (PublicUser, error) {
	if actorID == "" {
		return PublicUser{}, fault.Unauthorized(opUpdateAccount, "missing_actor", "sign in first")
	}
	trimmedName := strings.TrimSpace(fullName)
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	if trimmedName == "" {
		return PublicUser{}, fault.Invalid(opUpdateAccount, "missing_full_name", "full name is required")
	}
	if trimmedEmail == "" || !strings.Contains(trimmedEmail, "@") {
		return PublicUser{}, fault.Invalid(opUpdateAccount, "bad_email", "a valid email is required")
	}

	if _, err := s.fetch(ctx, opUpdateAccount, actorID); err != nil {
		return PublicUser{}, err
	}
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", actorID).
		Updates(map[string]interface{}{"full_name": trimmedName, "email": trimmedEmail}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return PublicUser{}, fault.Conflict(opUpdateAccount, "email_taken", "email is already in use")
	}
	if err != nil {
		s.logger.Error("account update failed", zap.String("user_id", actorID), zap.Error(err))
		return PublicUser{}, fault.Dependency(opUpdateAccount, "update_failed", err)
	}

	user, err := s.fetch(ctx, opUpdateAccount, actorID)
	if err != nil {
		return PublicUser{}, err
	}
	return publicUser(user), nil
}

// UpdateAvatar replaces the actor's avatar image.
func (s *Service) UpdateAvatar(ctx context.Context, actorID string, file *multipart.FileHeader) (PublicUser, error) {
	return s.updateImage(ctx, opUpdateAvatar, actorID, file, "avatar_url")
}

// UpdateCover replaces the actor's cover image.
func (s *Service) UpdateCover(ctx context.Context, actorID string, file *multipart.FileHeader) (PublicUser, error) {
	return s.updateImage(ctx, opUpdateCover, actorID, file, "cover_url")
}

func (s *Service) updateImage(ctx context.Context, operation, actorID string, file *multipart.FileHeader, column string) (PublicUser, error) {
	if actorID == "" {
		return PublicUser{}, fault.Unauthorized(operation, "missing_actor", "sign in first")
	}
	if file == nil {
		return PublicUser{}, fault.Invalid(operation, "missing_file", "image file is required")
	}

	user, err := s.fetch(ctx, operation, actorID)
	if err != nil {
		return PublicUser{}, err
	}

	url, err := s.media.Save(file)
	if err != nil {
		s.logger.Error("image store failed", zap.String("user_id", actorID), zap.Error(err))
		return PublicUser{}, fault.Dependency(operation, "store_failed", err)
	}
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", actorID).
		Update(column, url).Error; err != nil {
		s.logger.Error("image update failed", zap.String("user_id", actorID), zap.Error(err))
		return PublicUser{}, fault.Dependency(operation, "update_failed", err)
	}

	previous := user.AvatarURL
	if column == "cover_url" {
		previous = user.CoverURL
	}
	if previous != "" {
		if err := s.media.Delete(previous); err != nil {
			s.logger.Warn("stale image removal failed", zap.String("user_id", actorID), zap.Error(err))
		}
	}

	user, err = s.fetch(ctx, operation, actorID)
	if err != nil {
		return PublicUser{}, err
	}
	return publicUser(user), nil
}

// ChannelView is a user's public channel profile annotated for the viewer.
type ChannelView struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName"`
	AvatarURL         string    `json:"avatar"`
	CoverURL          string    `json:"coverImage"`
	SubscriberCount   int64     `json:"subscriberCount"`
	SubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ChannelProfile loads a channel by username, annotated for the viewer. An
// anonymous viewer and a viewer on their own channel read IsSubscribed false.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelView, error) {
	needle := strings.ToLower(strings.TrimSpace(username))
	if needle == "" {
		return ChannelView{}, fault.Invalid(opChannel, "missing_username", "username is required")
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", needle).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ChannelView{}, fault.NotFound(opChannel, "missing_channel", "channel does not exist")
	}
	if err != nil {
		return ChannelView{}, fault.Dependency(opChannel, "user_select_failed", err)
	}

	subscriberCount, err := s.views.SubscriberCount(ctx, user.ID)
	if err != nil {
		return ChannelView{}, err
	}
	subscribedToCount, err := s.views.SubscribedToCount(ctx, user.ID)
	if err != nil {
		return ChannelView{}, err
	}
	isSubscribed, err := s.views.IsSubscribed(ctx, viewerID, user.ID)
	if err != nil {
		return ChannelView{}, err
	}

	return ChannelView{
		ID:                user.ID,
		Username:          user.Username,
		FullName:          user.FullName,
		AvatarURL:         user.AvatarURL,
		CoverURL:          user.CoverURL,
		SubscriberCount:   subscriberCount,
		SubscribedToCount: subscribedToCount,
		IsSubscribed:      isSubscribed,
		CreatedAt:         user.CreatedAt,
	}, nil
}

// openSession issues a fresh token pair and stores the refresh token,
// rotating out any previous session.
func (s *Service) openSession(ctx context.Context, operation string, user model.User) (Session, error) {
	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return Session{}, fault.Dependency(operation, "access_issue_failed", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return Session{}, fault.Dependency(operation, "refresh_issue_failed", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", refreshToken).Error; err != nil {
		s.logger.Error("refresh token store failed", zap.String("user_id", user.ID), zap.Error(err))
		return Session{}, fault.Dependency(operation, "token_store_failed", err)
	}

	return Session{
		User:         publicUser(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (s *Service) fetch(ctx context.Context, operation, userID string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fault.NotFound(operation, "missing_user", "user does not exist")
	}
	if err != nil {
		return model.User{}, fault.Dependency(operation, "user_select_failed", err)
	}
	return user, nil
}
