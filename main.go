package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/robfig/cron/v3"

	"colegio_backend/internals/configs"
	"colegio_backend/internals/constants"
	database "colegio_backend/internals/databases"
	moraScheduler "colegio_backend/internals/features/finance/cronogramas/scheduler"
	authScheduler "colegio_backend/internals/features/users/auth/scheduler"
	helper "colegio_backend/internals/helpers"
	"colegio_backend/internals/helpers/storage"
	middlewares "colegio_backend/internals/middlewares"
	routes "colegio_backend/internals/route"
	"colegio_backend/internals/seeds"
)

// errorHandler keeps the JSON error shape for errors that escape handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		configs.ReportError(err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}
	return helper.FromFiberError(c, err)
}

func main() {
	configs.LoadEnv()
	if configs.InitRollbar() {
		defer configs.CloseRollbar()
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		BodyLimit:             6 << 20, // multipart overhead on top of the 4 MB upload limit
		ErrorHandler:          errorHandler,
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app)

	// DB connect + pool + schema + warm-up
	database.ConnectDB()
	database.TunePool()
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("[ERROR] migrate: %v", err)
	}
	if configs.GetBool("RUN_SEEDS") {
		seeds.RunAllSeeds(database.DB, configs.GetEnv("SEED_DIR"))
	}
	database.WarmUpQueries()

	loc := configs.SchoolLocation()
	st := routes.NewStorage()

	// jobs run in the school timezone so "today" is the civil date of the due dates
	jobs := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := moraScheduler.RegisterMoraAccrual(jobs, configs.GetEnv("MORA_CRON"), database.DB, loc); err != nil {
		log.Fatalf("[ERROR] mora cron: %v", err)
	}
	if _, err := authScheduler.RegisterBlacklistCleanup(jobs, database.DB); err != nil {
		log.Fatalf("[ERROR] blacklist cron: %v", err)
	}
	if _, err := storage.RegisterOrphanReaper(jobs, configs.GetEnv("UPLOAD_REAPER_CRON"), st, database.DB, storage.ReaperConfig{
		Prefix:    constants.UploadPrefix + "/",
		Retention: configs.GetDuration("UPLOAD_RETENTION"),
		DryRun:    configs.GetBool("UPLOAD_REAPER_DRY_RUN"),
		RefTable:  "comprobantes_pago",
		RefColumn: "comprobante_evidencia_url",
	}); err != nil {
		log.Fatalf("[ERROR] upload reaper cron: %v", err)
	}
	jobs.Start()

	routes.SetupRoutes(app, database.DB, st)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT")

	go func() {
		log.Printf("[INFO] listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop jobs, drain requests, close the pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-jobs.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	database.Close()
}
