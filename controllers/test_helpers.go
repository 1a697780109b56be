package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/realtime"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

// testEnv is a fully wired application on the in-memory backend. The store
// contract makes both backends interchangeable, so handler behavior proven
// here holds for the Postgres backend too (which has its own store tests).
type testEnv struct {
	router   *gin.Engine
	store    *store.MemoryStore
	hub      *realtime.Hub
	registry *services.SessionRegistry
}

// SetupTestEnv builds the router the way main does, minus rate limiting.
// Admin credentials are admin/church123.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	registry := services.NewSessionRegistry("admin", "church123", "", []byte("test-secret"))

	hub := realtime.NewHub(memStore)
	go hub.Run()

	auth := NewAuthController(registry)
	prayers := NewPrayerRequestController(memStore, hub, nil)
	comments := NewCommentController(memStore, hub)
	health := NewHealthController(memStore, hub)

	router := gin.New()
	router.GET("/health", health.Health)

	api := router.Group("/api")
	api.POST("/login", auth.Login)
	api.POST("/prayer-requests", prayers.CreatePrayerRequest)

	protected := api.Group("/")
	protected.Use(middlewares.CheckAuth(registry))
	protected.POST("/logout", auth.Logout)
	protected.GET("/prayer-requests", prayers.ListPrayerRequests)
	protected.GET("/prayer-requests/:id", prayers.GetPrayerRequest)
	protected.PUT("/prayer-requests/:id", prayers.UpdatePrayerRequest)
	protected.DELETE("/prayer-requests/:id", prayers.DeletePrayerRequest)
	protected.DELETE("/prayer-requests", prayers.DeleteAllPrayerRequests)
	protected.GET("/comments", comments.ListComments)
	protected.DELETE("/comments/:id", comments.DeleteComment)

	return &testEnv{router: router, store: memStore, hub: hub, registry: registry}
}

// Login issues a token straight from the registry for tests that need an
// authenticated request without exercising the login handler.
func (e *testEnv) Login(t *testing.T) string {
	t.Helper()
	token, err := e.registry.Issue("admin", "church123")
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// Do runs a JSON request against the test router.
func (e *testEnv) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}
