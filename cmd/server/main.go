package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"interview-scheduler/internal/app"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/server"
	"interview-scheduler/internal/sheets"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	store := app.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	directory, err := app.NewDirectory(store, cfg.DirectoryCacheSize)
	if err != nil {
		log.Fatalf("directory: %v", err)
	}

	var notifier app.Notifier = app.LogNotifier{}
	if cfg.SMTPAddr != "" {
		notifier = &app.SMTPNotifier{Addr: cfg.SMTPAddr, From: cfg.MailFrom}
	}

	appInstance := &app.App{
		Store:     store,
		Ledger:    app.NewLedger(store),
		Directory: directory,
		Notifier:  notifier,
	}

	var syncer *sheets.Synchronizer
	if cfg.SheetsEnabled() {
		client, err := sheets.NewClient(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetRange)
		if err != nil {
			log.Fatalf("sheets: %v", err)
		}
		syncer = sheets.NewSynchronizer(client, appInstance, cfg.SyncInterval)
		appInstance.Mirror = syncer
	} else {
		log.Printf("sheets mirroring disabled (no spreadsheet configured)")
	}

	router := gin.Default()
	router.Use(app.AuthMiddleware(cfg.StaticTokens, cfg.JWTSecret))

	api := router.Group("/api")
	{
		requests := api.Group("/requests")
		{
			requests.POST("", appInstance.CreateRequestHandler)
			requests.GET("", appInstance.ListRequestsHandler)
			requests.GET("/:id", appInstance.GetRequestHandler)
			requests.POST("/:id/availability", appInstance.SubmitAvailabilityHandler)
			requests.GET("/:id/slots", appInstance.OfferedSlotsHandler)
			requests.POST("/:id/reserve", appInstance.ReserveSlotHandler)
			requests.POST("/:id/decline", appInstance.DeclineOffersHandler)
			requests.DELETE("/:id", appInstance.CancelRequestHandler)
		}
		api.GET("/employees/:id", appInstance.EmployeeInfoHandler)
	}

	g, gctx := errgroup.WithContext(ctx)
	if syncer != nil {
		g.Go(func() error { return syncer.Run(gctx) })
	}
	g.Go(func() error { return server.Run(router, cfg.Port) })

	if err := g.Wait(); err != nil {
		log.Fatalf("exited: %v", err)
	}
}
