package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

// AuthController handles admin login and logout against the session
// registry.
type AuthController struct {
	Registry *services.SessionRegistry
}

func NewAuthController(registry *services.SessionRegistry) *AuthController {
	return &AuthController{Registry: registry}
}

// Login verifies the admin credential pair and returns a fresh session
// token.
func (a *AuthController) Login(c *gin.Context) {
	var login models.Login
	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	token, err := a.Registry.Issue(login.Username, login.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    models.AdminUser{Username: a.Registry.Username(), Role: "admin"},
	})
}

// Logout revokes the session token the request authenticated with.
func (a *AuthController) Logout(c *gin.Context) {
	token := c.MustGet("sessionToken").(string)
	a.Registry.Revoke(token)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
