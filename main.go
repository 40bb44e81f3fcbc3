package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/icaffe-pos/pos-device-api/config"
	"github.com/icaffe-pos/pos-device-api/controllers"
	"github.com/icaffe-pos/pos-device-api/engine"
	"github.com/icaffe-pos/pos-device-api/remote"
	"github.com/icaffe-pos/pos-device-api/services"
	"github.com/icaffe-pos/pos-device-api/store"
)

func main() {
	log.Println("Starting POS device API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The local cache is the UI's synchronous surface; it must open even
	// when the network is down.
	cacheDB, err := config.ConnectLocalCache(cfg.LocalCachePath)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	localCache := store.NewLocal(cacheDB)

	remoteDB, err := config.ConnectRemoteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to remote store: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	remoteClient := remote.NewClient(remoteDB, redisClient)
	syncEngine := engine.New(localCache, remoteClient, cfg.BusinessID, engine.SystemClock{})

	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitScreenshotStorage(); err != nil {
			log.Printf("Screenshot storage unavailable: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup sequence: seed the cache, then heal. The menu and item pull
	// happens before healing so the healer sees items and does not skip
	// orders it could have corrected.
	if err := syncEngine.SeedMenu(ctx); err != nil {
		log.Printf("Menu seed failed, name hydration may be incomplete: %v", err)
	}
	if err := syncEngine.Refresh(ctx); err != nil {
		log.Printf("Initial sync failed, serving cached data: %v", err)
	}
	if healed := syncEngine.Heal(ctx); healed > 0 {
		log.Printf("Startup healing corrected %d orders", healed)
	}
	syncEngine.PushPending(ctx)

	// Realtime feed consumer and the poll fallback.
	go func() {
		if err := syncEngine.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Realtime consumer stopped: %v", err)
		}
	}()
	go syncEngine.Poll(ctx)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	orderCtrl := controllers.NewOrderController(syncEngine)
	syncCtrl := controllers.NewSyncController(syncEngine)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)

		v1.GET("/orders", orderCtrl.GetOrders)
		v1.POST("/orders", orderCtrl.CreateOrder)
		v1.PATCH("/orders/:id", orderCtrl.UpdateOrder)
		v1.PATCH("/orders/:id/status", orderCtrl.UpdateOrderStatus)
		v1.POST("/orders/:id/seen", orderCtrl.MarkOrderSeen)
		v1.PATCH("/orders/:id/items", orderCtrl.UpdateOrderItems)
		v1.POST("/orders/:id/screenshot", orderCtrl.UploadScreenshot)

		v1.POST("/sync/refresh", syncCtrl.Refresh)
	}

	addr := ":" + cfg.Port
	log.Printf("Device API listening on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
