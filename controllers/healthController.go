package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/realtime"
	"github.com/PrayerWall/store"
)

// HealthController reports liveness plus which storage backend the process
// ended up on, so a fallback-mode instance is observable from outside.
type HealthController struct {
	Store store.Store
	Hub   *realtime.Hub
}

func NewHealthController(st store.Store, hub *realtime.Hub) *HealthController {
	return &HealthController{Store: st, Hub: hub}
}

func (h *HealthController) Health(c *gin.Context) {
	database := "disconnected"
	if h.Store.Durable() {
		database = "connected"
	}

	prayerCount, err := h.Store.CountPrayerRequests(c.Request.Context())
	if err != nil {
		log.Printf("Health check failed to count prayer requests: %v", err)
		prayerCount = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"database":            database,
		"connectedClients":    h.Hub.ClientCount(),
		"prayerRequestsCount": prayerCount,
	})
}
