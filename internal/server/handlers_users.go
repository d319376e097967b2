package server

import (
	"mime/multipart"
	"net/http"

	"github.com/ClipStreamLabs/clipstream/backend/internal/respond"
	"github.com/ClipStreamLabs/clipstream/backend/internal/users"
	"github.com/gin-gonic/gin"
)

func formFile(c *gin.Context, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	input := users.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("fullName"),
		Password: c.PostForm("password"),
		Avatar:   formFile(c, "avatar"),
		Cover:    formFile(c, "coverImage"),
	}
	account, err := h.deps.Users.Register(c.Request.Context(), input)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, account, "user registered")
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("users.login", "bad_payload", "a JSON body with identifier and password is required"))
		return
	}
	session, err := h.deps.Users.Login(c.Request.Context(), payload.Identifier, payload.Password)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, session, "logged in")
}

type refreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *httpHandler) handleRefresh(c *gin.Context) {
	var payload refreshPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("users.refresh", "bad_payload", "a JSON body with refreshToken is required"))
		return
	}
	session, err := h.deps.Users.Refresh(c.Request.Context(), payload.RefreshToken)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, session, "session refreshed")
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if err := h.deps.Users.Logout(c.Request.Context(), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "logged out")
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *httpHandler) handleChangePassword(c *gin.Context) {
	var payload changePasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("users.change_password", "bad_payload", "a JSON body with currentPassword and newPassword is required"))
		return
	}
	if err := h.deps.Users.ChangePassword(c.Request.Context(), h.actorID(c), payload.CurrentPassword, payload.NewPassword); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "password changed")
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	account, err := h.deps.Users.CurrentUser(c.Request.Context(), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, account, "current user")
}

type updateAccountPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *httpHandler) handleUpdateAccount(c *gin.Context) {
	var payload updateAccountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("users.update_account", "bad_payload", "a JSON body with fullName and email is required"))
		return
	}
	account, err := h.deps.Users.UpdateAccount(c.Request.Context(), h.actorID(c), payload.FullName, payload.Email)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, account, "account updated")
}

func (h *httpHandler) handleUpdateAvatar(c *gin.Context) {
	account, err := h.deps.Users.UpdateAvatar(c.Request.Context(), h.actorID(c), formFile(c, "avatar"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, account, "avatar updated")
}

func (h *httpHandler) handleUpdateCover(c *gin.Context) {
	account, err := h.deps.Users.UpdateCover(c.Request.Context(), h.actorID(c), formFile(c, "coverImage"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, account, "cover image updated")
}

func (h *httpHandler) handleChannelProfile(c *gin.Context) {
	profile, err := h.deps.Users.ChannelProfile(c.Request.Context(), c.Param("username"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, profile, "channel profile")
}

func (h *httpHandler) handleWatchHistory(c *gin.Context) {
	history, err := h.deps.Videos.WatchHistory(c.Request.Context(), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, history, "watch history")
}
