package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/config"
	"github.com/agrolink/marketplace/internal/database"
	"github.com/agrolink/marketplace/internal/handler"
	"github.com/agrolink/marketplace/internal/queue"
	"github.com/agrolink/marketplace/internal/repository"
	"github.com/agrolink/marketplace/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// nil when Redis is unreachable; cache and rate limiter degrade to no-ops
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	requests := repository.NewBulkRequestRepo(db)
	pledges := repository.NewPledgeRepo(db)

	authH := handler.NewAuthHandler(cfg, users)
	productH := handler.NewProductHandler(products, categories)
	requestH := handler.NewBulkRequestHandler(requests)
	pledgeH := handler.NewPledgeHandler(requests, pledges)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rdb, config.LoadRateLimitConfig())
	router.RegisterProducts(e, productH, cfg.JWTSecret, rdb, config.LoadCacheConfig())
	router.RegisterBulkRequests(e, requestH, pledgeH, cfg.JWTSecret)

	// background consumer appends accepted pledges to logs/pledges.log;
	// it reconnects on broker failures and never takes the server down
	go func() {
		if err := queue.StartPledgeConsumer(); err != nil {
			log.Printf("pledge-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
