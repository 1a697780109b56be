package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/realtime"
	"github.com/PrayerWall/store"
)

// CommentController handles the admin comment surface. Comment creation
// lives on the push channel, not here; over REST admins can only list and
// delete.
type CommentController struct {
	Store store.Store
	Hub   *realtime.Hub
}

func NewCommentController(st store.Store, hub *realtime.Hub) *CommentController {
	return &CommentController{Store: st, Hub: hub}
}

// ListComments returns the full comment history, newest first. Admin only;
// the live feed's 50-comment cap does not apply here.
func (cc *CommentController) ListComments(c *gin.Context) {
	comments, err := cc.Store.ListComments(c.Request.Context(), 0)
	if err != nil {
		respondStoreError(c, err, "Comment not found")
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// DeleteComment removes a comment and tells live viewers to drop it.
func (cc *CommentController) DeleteComment(c *gin.Context) {
	deleted, err := cc.Store.DeleteComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "Comment not found")
		return
	}

	cc.Hub.Broadcast(realtime.CommentDeleted(deleted.ID))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}
