package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"pixiu/internal/config"
	"pixiu/internal/database"
	"pixiu/internal/digest"
	"pixiu/internal/handlers"
	"pixiu/internal/jobs"
	"pixiu/internal/logging"
	"pixiu/internal/models"
	"pixiu/internal/services"
	"pixiu/internal/sources"
	syncer "pixiu/internal/sync"
	"pixiu/internal/watchlist"
)

// Upstream endpoints. The market endpoints share a session portal.
const (
	quotePortalURL  = "https://xueqiu.com/"
	newsBaseURL     = "https://xueqiu.com"
	stockBaseURL    = "https://stock.xueqiu.com"
	stockSymbol     = "SH000001"
	goldBaseURL     = "https://api.jijinhao.com"
	goldCode        = "JO_52683"
	goldReferer     = "https://quote.cngold.org/gjs/swhj_zghj.html"
	leetcodeBaseURL = "https://leetcode.cn"
	sayingBaseURL   = "https://open.iciba.com"
)

// Sync cadences. The news feed moves constantly; the price sources close
// once a day, as does the digest.
const (
	newsCron   = "* * * * *"
	stockCron  = "30 9 * * *"
	goldCron   = "30 9 * * *"
	digestCron = "0 7 * * *"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Pixiu Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	// Load configuration; missing required values are fatal.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("❌ Invalid DIGEST_TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize Redis (optional - aggregate response cache)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (response cache disabled)", err)
			redisService = nil
		} else {
			defer redisService.Close()
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - response cache disabled")
	}

	// Storage services
	watermarkService := services.NewWatermarkService(db)
	newsService := services.NewNewsService(db)
	priceService := services.NewPriceService(db)
	fundService := services.NewFundService(db)
	comicService := services.NewComicService(db)

	// Source adapters share one rate-limited outbound client
	client := sources.NewClient(quotePortalURL, cfg.FetchRPS)
	newsAdapter := sources.NewNewsAdapter(client, newsBaseURL)
	stockAdapter := sources.NewStockAdapter(client, stockBaseURL, stockSymbol)
	goldAdapter := sources.NewGoldAdapter(client, goldBaseURL, goldCode, goldReferer)
	leetcodeAdapter := sources.NewLeetCodeAdapter(client, leetcodeBaseURL)
	sayingAdapter := sources.NewSayingAdapter(client, sayingBaseURL)

	// Incremental syncs: one generic loop per source
	newsSync := syncer.New(newsAdapter, newsService, watermarkService,
		func(item models.NewsItem) uint64 { return item.ID })
	stockSync := syncer.New[models.PricePoint](stockAdapter, priceService, watermarkService,
		models.PricePoint.Cursor)
	goldSync := syncer.New[models.PricePoint](goldAdapter, priceService, watermarkService,
		models.PricePoint.Cursor)

	// Comic watch list with hot reload
	watch, err := watchlist.Load(cfg.WatchlistPath)
	if err != nil {
		log.Fatalf("❌ Failed to load watch list: %v", err)
	}
	defer watch.Close()
	if err := watch.Watch(); err != nil {
		log.Printf("⚠️ Watch list hot reload disabled: %v", err)
	}

	// The chapter listing and forecast pages sit behind anti-bot
	// measures and are rendered by an out-of-process scraper; without
	// one those digest sections stay empty.
	var comicSync *sources.ComicSync
	var weather sources.WeatherProvider
	if cfg.ScraperURL != "" {
		scraper := sources.NewScraperService(client, cfg.ScraperURL)
		comicSync = sources.NewComicSync(scraper, comicService, watch.Comics)
		weather = scraper
	} else {
		log.Println("⚠️ SCRAPER_URL not set - comic tracking and weather disabled")
	}

	// Digest composition and delivery
	notifier := digest.NewHTTPNotifier(cfg.NotifyURL, cfg.NotifyToken)
	var mailer digest.Mailer // SMTP delivery is a perimeter concern
	var charts digest.ChartRenderer
	composer := digest.NewComposer(newsService, priceService, leetcodeAdapter, sayingAdapter, weather, charts, location)
	digestJob := jobs.NewDigestJob(composer, comicSync, notifier, mailer)
	if cfg.MailTo == "" {
		log.Println("⚠️ MAIL_TO not set - digest mail delivery disabled")
	}

	// Scheduler
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}

	registrations := []struct {
		name string
		cron string
		task jobs.Task
	}{
		{"news-sync", newsCron, newsSync.Cycle},
		{"stock-sync", stockCron, stockSync.Cycle},
		{"gold-sync", goldCron, goldSync.Cycle},
		{"daily-digest", digestCron, digestJob.Run},
	}
	for _, r := range registrations {
		if err := scheduler.Register(r.name, r.cron, r.task); err != nil {
			log.Fatalf("❌ Failed to register job %s: %v", r.name, err)
		}
	}

	scheduler.Start()
	log.Printf("🕐 Background jobs: news sync (every minute), stock/gold sync (daily), digest (daily)")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Pixiu v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("pixiu")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	fundHandler := handlers.NewFundHandler(fundService, redisService)
	ledgerHandler := handlers.NewLedgerHandler(fundService, db)
	jobsHandler := handlers.NewJobsHandler(scheduler)

	// Routes
	app.Get("/health", healthHandler.Handle)
	app.Post("/init", ledgerHandler.Init)
	app.Post("/fund", fundHandler.Create)
	app.Get("/fund", fundHandler.List)
	app.Put("/fund/:id", fundHandler.Update)
	app.Delete("/fund/:id", fundHandler.Delete)
	app.Get("/fund/sources", fundHandler.Sources)
	app.Get("/fund/classes", fundHandler.Classes)
	app.Get("/debt", ledgerHandler.Debts)
	app.Get("/property", ledgerHandler.Properties)
	app.Get("/jobs", jobsHandler.Status)
	app.Post("/jobs/:name/run", jobsHandler.RunNow)

	// Handle graceful shutdown: stop ticking, let in-flight sync cycles
	// finish, then close the server. The watermark only ever advances
	// after a confirmed persisted batch, so a shutdown mid-cycle at worst
	// repeats a fetch the upsert will deduplicate.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := scheduler.Shutdown(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
