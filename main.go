package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/controllers"
	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/realtime"
	"github.com/PrayerWall/services"
	"github.com/PrayerWall/store"
)

// buildStore makes the one-shot backend decision: Postgres if it answers
// within the connect timeout, otherwise the in-memory fallback for the life
// of the process. The decision is never revisited, so data written in
// fallback mode stays in memory even if the database comes back.
func buildStore() store.Store {
	db, err := initializers.ConnectDB(context.Background())
	if err != nil {
		log.Printf("WARNING: durable backend unavailable, falling back to in-memory storage: %v", err)
		mem := store.NewMemoryStore()
		mem.SeedSampleData()
		return mem
	}

	log.Println("Connected to Postgres")
	return store.NewPostgresStore(db)
}

func main() {
	initializers.LoadEnv()

	recordStore := buildStore()
	registry := services.NewSessionRegistryFromEnv()
	email := services.NewEmailServiceFromEnv()

	hub := realtime.NewHub(recordStore)
	go hub.Run()

	auth := controllers.NewAuthController(registry)
	prayers := controllers.NewPrayerRequestController(recordStore, hub, email)
	comments := controllers.NewCommentController(recordStore, hub)
	health := controllers.NewHealthController(recordStore, hub)

	router := gin.Default()

	limiter := middlewares.NewRateLimiter()
	getKey := func(c *gin.Context) string {
		if gin.Mode() == gin.DebugMode {
			return c.FullPath()
		}
		return c.ClientIP()
	}

	router.GET("/health", health.Health)
	router.GET("/ws", hub.HandleConnection)

	api := router.Group("/api")
	{
		api.POST("/login", limiter.Limit(2, 2, getKey), auth.Login)
		api.POST("/prayer-requests", limiter.Limit(2, 5, getKey), prayers.CreatePrayerRequest)

		protected := api.Group("/")
		protected.Use(middlewares.CheckAuth(registry))
		{
			protected.POST("/logout", auth.Logout)

			protected.GET("/prayer-requests", prayers.ListPrayerRequests)
			protected.GET("/prayer-requests/:id", prayers.GetPrayerRequest)
			protected.PUT("/prayer-requests/:id", prayers.UpdatePrayerRequest)
			protected.DELETE("/prayer-requests/:id", prayers.DeletePrayerRequest)
			protected.DELETE("/prayer-requests", prayers.DeleteAllPrayerRequests)

			protected.GET("/comments", comments.ListComments)
			protected.DELETE("/comments/:id", comments.DeleteComment)
		}
	}

	addr := ":3001"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	if err := router.Run(addr); err != nil {
		log.Fatal(err)
	}
}
