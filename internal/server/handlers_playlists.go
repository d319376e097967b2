package server

import (
	"net/http"

	"github.com/ClipStreamLabs/clipstream/backend/internal/respond"
	"github.com/gin-gonic/gin"
)

type playlistPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *httpHandler) handleCreatePlaylist(c *gin.Context) {
	var payload playlistPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("playlists.create", "bad_payload", "a JSON body with name is required"))
		return
	}
	playlist, err := h.deps.Playlists.Create(c.Request.Context(), h.actorID(c), payload.Name, payload.Description)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, playlist, "playlist created")
}

func (h *httpHandler) handleGetPlaylist(c *gin.Context) {
	view, err := h.deps.Playlists.Get(c.Request.Context(), c.Param("playlistId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, view, "playlist")
}

func (h *httpHandler) handleUpdatePlaylist(c *gin.Context) {
	var payload playlistPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("playlists.update", "bad_payload", "a JSON body with name is required"))
		return
	}
	playlist, err := h.deps.Playlists.Update(c.Request.Context(), c.Param("playlistId"), h.actorID(c), payload.Name, payload.Description)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, playlist, "playlist updated")
}

func (h *httpHandler) handleDeletePlaylist(c *gin.Context) {
	if err := h.deps.Playlists.Delete(c.Request.Context(), c.Param("playlistId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "playlist deleted")
}

func (h *httpHandler) handleAddPlaylistVideo(c *gin.Context) {
	if err := h.deps.Playlists.AddVideo(c.Request.Context(), c.Param("playlistId"), c.Param("videoId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "video added to playlist")
}

func (h *httpHandler) handleRemovePlaylistVideo(c *gin.Context) {
	if err := h.deps.Playlists.RemoveVideo(c.Request.Context(), c.Param("playlistId"), c.Param("videoId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "video removed from playlist")
}

func (h *httpHandler) handleListPlaylists(c *gin.Context) {
	listing, err := h.deps.Playlists.ListForOwner(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "playlists")
}
