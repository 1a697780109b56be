package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/realtime"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

// PrayerRequestController handles the prayer request surface. Every
// successful mutation is broadcast to live viewers after, and only after,
// the store has confirmed it; the HTTP response never waits on delivery.
type PrayerRequestController struct {
	Store store.Store
	Hub   *realtime.Hub
	Email *services.EmailService
}

func NewPrayerRequestController(st store.Store, hub *realtime.Hub, email *services.EmailService) *PrayerRequestController {
	return &PrayerRequestController{Store: st, Hub: hub, Email: email}
}

// ListPrayerRequests returns every prayer request, newest first. Admin only.
func (p *PrayerRequestController) ListPrayerRequests(c *gin.Context) {
	prayers, err := p.Store.ListPrayerRequests(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	if prayers == nil {
		prayers = []models.PrayerRequest{}
	}
	c.JSON(http.StatusOK, prayers)
}

// GetPrayerRequest returns a single prayer request. Admin only.
func (p *PrayerRequestController) GetPrayerRequest(c *gin.Context) {
	prayer, err := p.Store.GetPrayerRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	c.JSON(http.StatusOK, prayer)
}

// CreatePrayerRequest accepts a public submission. Status is forced to
// pending and an anonymous submission never keeps its supplied name.
func (p *PrayerRequestController) CreatePrayerRequest(c *gin.Context) {
	var in models.PrayerRequestCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := p.Store.CreatePrayerRequest(c.Request.Context(), in)
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	p.Hub.Broadcast(realtime.PrayerRequestAdded(prayer))
	go p.Email.NotifyNewPrayerRequest(prayer)

	c.JSON(http.StatusCreated, prayer)
}

// UpdatePrayerRequest applies an admin patch: fields omitted from the body
// keep their prior values.
func (p *PrayerRequestController) UpdatePrayerRequest(c *gin.Context) {
	var patch models.PrayerRequestUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prayer, err := p.Store.UpdatePrayerRequest(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	p.Hub.Broadcast(realtime.PrayerRequestUpdated(prayer))

	c.JSON(http.StatusOK, prayer)
}

// DeletePrayerRequest removes one prayer request and returns it.
func (p *PrayerRequestController) DeletePrayerRequest(c *gin.Context) {
	id := c.Param("id")

	deleted, err := p.Store.DeletePrayerRequest(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	p.Hub.Broadcast(realtime.PrayerRequestDeleted(deleted.ID))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Prayer request deleted",
		"request": deleted,
	})
}

// DeleteAllPrayerRequests clears the collection and reports how many rows
// went away.
func (p *PrayerRequestController) DeleteAllPrayerRequests(c *gin.Context) {
	count, err := p.Store.DeleteAllPrayerRequests(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "Prayer request not found")
		return
	}

	p.Hub.Broadcast(realtime.PrayerRequestsCleared(count))

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": count})
}
