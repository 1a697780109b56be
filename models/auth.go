package models

// Login is the admin login payload.
type Login struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminUser is the shape echoed back on a successful login. There is exactly
// one admin identity in this system.
type AdminUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
