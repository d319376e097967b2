package server

import (
	"net/http"
	"strconv"

	"github.com/ClipStreamLabs/clipstream/backend/internal/respond"
	"github.com/ClipStreamLabs/clipstream/backend/internal/videos"
	"github.com/gin-gonic/gin"
)

func (h *httpHandler) handleCreateVideo(c *gin.Context) {
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)
	input := videos.CreateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Duration:    duration,
		VideoFile:   formFile(c, "videoFile"),
		Thumbnail:   formFile(c, "thumbnail"),
	}
	video, err := h.deps.Videos.Create(c.Request.Context(), h.actorID(c), input)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, video, "video uploaded")
}

func (h *httpHandler) handleGetVideo(c *gin.Context) {
	view, err := h.deps.Videos.Get(c.Request.Context(), c.Param("videoId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, view, "video")
}

func (h *httpHandler) handleListVideos(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("limit"))
	options := videos.ListOptions{
		OwnerID:   c.Query("userId"),
		Query:     c.Query("query"),
		SortBy:    c.Query("sortBy"),
		Ascending: c.Query("sortOrder") == "asc",
		Page:      page,
		PageSize:  pageSize,
	}
	listing, err := h.deps.Videos.List(c.Request.Context(), options, h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "videos")
}

func (h *httpHandler) handleUpdateVideo(c *gin.Context) {
	input := videos.UpdateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Thumbnail:   formFile(c, "thumbnail"),
	}
	video, err := h.deps.Videos.Update(c.Request.Context(), c.Param("videoId"), h.actorID(c), input)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, video, "video updated")
}

func (h *httpHandler) handleDeleteVideo(c *gin.Context) {
	if err := h.deps.Videos.Delete(c.Request.Context(), c.Param("videoId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "video deleted")
}

func (h *httpHandler) handleTogglePublish(c *gin.Context) {
	published, err := h.deps.Videos.TogglePublish(c.Request.Context(), c.Param("videoId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"isPublished": published}, "publish state toggled")
}
