package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/server/internal/cache"
	"taskflow/server/internal/config"
	"taskflow/server/internal/handlers"
	"taskflow/server/internal/middleware"
	"taskflow/server/internal/monitoring"
	"taskflow/server/internal/repositories"
	"taskflow/server/internal/services"
	"taskflow/server/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repositories.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	authService := services.NewAuthService(cfg.Auth)

	var taskService services.TaskService = services.NewTaskService()
	var jobs *worker.JobQueue
	var reminderWorker *worker.Worker

	if err := redisCache.Health(); err != nil {
		log.Printf("redis unavailable, running without cache and background jobs: %v", err)
	} else {
		taskService = services.NewCachedTaskService(taskService, redisCache)
		jobs = worker.NewJobQueue(redisCache.Client())

		reminderWorker = worker.NewWorker(worker.WorkerConfig{
			RedisClient: redisCache.Client(),
			Queues:      cfg.Worker.Queues,
		})
		reminderWorker.RegisterHandler(worker.JobTypeTaskReminder, func(ctx context.Context, job *worker.Job) error {
			log.Printf("reminder due: task %v (%v) for user %v",
				job.Payload["task_id"], job.Payload["title"], job.Payload["user_id"])
			return nil
		})
		reminderWorker.Start(cfg.Worker.Concurrency)
	}

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisCache.Health()
	})

	router := setupRouter(db, authService, taskService, jobs)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", cfg.GetServerAddr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if reminderWorker != nil {
		reminderWorker.Stop()
	}
	redisCache.Close()
}

func setupRouter(db *gorm.DB, authService services.AuthService, taskService services.TaskService, jobs *worker.JobQueue) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.Default())

	router.GET("/health", monitoring.HealthHandler)
	router.GET("/metrics", monitoring.MetricsHandler)

	authHandler := handlers.NewAuthHandler(db, authService)
	taskHandler := handlers.NewTaskHandler(db, taskService, jobs)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthMiddleware(authService), authHandler.Me)
		}

		protected := api.Group("", middleware.AuthMiddleware(authService))
		{
			protected.GET("/users/:id", authHandler.GetUserByID)

			protected.POST("/tasks", taskHandler.CreateTask)
			protected.GET("/tasks", taskHandler.GetTasks)
			protected.GET("/tasks/:id", taskHandler.GetTaskByID)
			protected.PUT("/tasks/:id", taskHandler.UpdateTask)
			protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
		}
	}

	return router
}
