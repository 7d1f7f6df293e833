package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/lpg-distribution/internal/config"
	"github.com/iliyamo/lpg-distribution/internal/database"
	"github.com/iliyamo/lpg-distribution/internal/handler"
	"github.com/iliyamo/lpg-distribution/internal/middleware"
	"github.com/iliyamo/lpg-distribution/internal/pricing"
	"github.com/iliyamo/lpg-distribution/internal/queue"
	"github.com/iliyamo/lpg-distribution/internal/repository"
	"github.com/iliyamo/lpg-distribution/internal/router"
	"github.com/iliyamo/lpg-distribution/internal/upload"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Tariffs load once at startup; a bad rate file must stop the server
	// rather than price connections at zero.
	rates, err := pricing.LoadTable(cfg.RateTablePath)
	if err != nil {
		log.Fatalf("pricing: %v", err)
	}

	// Repositories.  Approval and booking workflows run inside these, so
	// the cross-references wire the collaborating repos together.
	counters := repository.NewCounterRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	audit := repository.NewAuditRepo(db)
	agencies := repository.NewAgencyRepo(db, counters, users, audit)
	customers := repository.NewCustomerRepo(db, counters, users, audit)
	staff := repository.NewStaffRepo(db, counters, users, audit)
	stock := repository.NewCylinderRepo(db)
	bookings := repository.NewBookingRepo(db, counters, stock, audit)
	assignments := repository.NewAssignmentRepo(db, counters, bookings, stock, audit)

	uploads := upload.NewDiskStore(cfg.UploadRoot)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Redis-backed rate limiting; both degrade to no-ops when Redis is
	// unreachable.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Agency:     handler.NewAgencyHandler(agencies),
		Customer:   handler.NewCustomerHandler(customers, agencies, rates, uploads),
		Staff:      handler.NewStaffHandler(staff),
		Cylinder:   handler.NewCylinderHandler(stock),
		Booking:    handler.NewBookingHandler(bookings, customers, rates),
		Assignment: handler.NewAssignmentHandler(assignments, bookings, staff),
		Admin:      handler.NewAdminHandler(users, audit),
	}
	router.Register(e, h, cfg.JWTSecret, cacheMW)

	// Event consumer runs for the life of the process and survives broker
	// outages on its own.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
