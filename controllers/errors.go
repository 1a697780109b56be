package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/store"
)

// respondStoreError maps store failures onto the HTTP surface: validation
// errors are the caller's fault, missing records are 404, anything else is a
// logged 500. notFoundMsg names the entity for the 404 body.
func respondStoreError(c *gin.Context, err error, notFoundMsg string) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	default:
		log.Printf("Store operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
