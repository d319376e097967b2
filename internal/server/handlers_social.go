package server

import (
	"net/http"

	"github.com/ClipStreamLabs/clipstream/backend/internal/respond"
	"github.com/gin-gonic/gin"
)

type contentPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	var payload contentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("comments.add", "bad_payload", "a JSON body with content is required"))
		return
	}
	comment, err := h.deps.Comments.Add(c.Request.Context(), c.Param("videoId"), h.actorID(c), payload.Content)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, comment, "comment added")
}

func (h *httpHandler) handleUpdateComment(c *gin.Context) {
	var payload contentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("comments.update", "bad_payload", "a JSON body with content is required"))
		return
	}
	comment, err := h.deps.Comments.Update(c.Request.Context(), c.Param("commentId"), h.actorID(c), payload.Content)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, comment, "comment updated")
}

func (h *httpHandler) handleDeleteComment(c *gin.Context) {
	if err := h.deps.Comments.Delete(c.Request.Context(), c.Param("commentId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "comment deleted")
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	listing, err := h.deps.Comments.ListForVideo(c.Request.Context(), c.Param("videoId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "comments")
}

func (h *httpHandler) handleCreateTweet(c *gin.Context) {
	var payload contentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("tweets.create", "bad_payload", "a JSON body with content is required"))
		return
	}
	tweet, err := h.deps.Tweets.Create(c.Request.Context(), h.actorID(c), payload.Content)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, tweet, "tweet posted")
}

func (h *httpHandler) handleUpdateTweet(c *gin.Context) {
	var payload contentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Failure(c, badRequest("tweets.update", "bad_payload", "a JSON body with content is required"))
		return
	}
	tweet, err := h.deps.Tweets.Update(c.Request.Context(), c.Param("tweetId"), h.actorID(c), payload.Content)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, tweet, "tweet updated")
}

func (h *httpHandler) handleDeleteTweet(c *gin.Context) {
	if err := h.deps.Tweets.Delete(c.Request.Context(), c.Param("tweetId"), h.actorID(c)); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, nil, "tweet deleted")
}

func (h *httpHandler) handleListTweets(c *gin.Context) {
	listing, err := h.deps.Tweets.ListForUser(c.Request.Context(), c.Param("userId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "tweets")
}

func (h *httpHandler) handleToggleVideoLike(c *gin.Context) {
	liked, err := h.deps.Likes.ToggleVideo(c.Request.Context(), c.Param("videoId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"isLiked": liked}, "like toggled")
}

func (h *httpHandler) handleToggleCommentLike(c *gin.Context) {
	liked, err := h.deps.Likes.ToggleComment(c.Request.Context(), c.Param("commentId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"isLiked": liked}, "like toggled")
}

func (h *httpHandler) handleToggleTweetLike(c *gin.Context) {
	liked, err := h.deps.Likes.ToggleTweet(c.Request.Context(), c.Param("tweetId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"isLiked": liked}, "like toggled")
}

func (h *httpHandler) handleLikedVideos(c *gin.Context) {
	listing, err := h.deps.Likes.LikedVideos(c.Request.Context(), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "liked videos")
}

func (h *httpHandler) handleToggleSubscription(c *gin.Context) {
	subscribed, err := h.deps.Subscriptions.Toggle(c.Request.Context(), c.Param("channelId"), h.actorID(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"isSubscribed": subscribed}, "subscription toggled")
}

func (h *httpHandler) handleSubscribers(c *gin.Context) {
	listing, err := h.deps.Subscriptions.Subscribers(c.Request.Context(), c.Param("channelId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "subscribers")
}

func (h *httpHandler) handleSubscribedChannels(c *gin.Context) {
	listing, err := h.deps.Subscriptions.SubscribedChannels(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, listing, "subscribed channels")
}
