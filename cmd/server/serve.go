package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"proverka/internal/api"
	"proverka/internal/config"
	"proverka/internal/journal"
	"proverka/internal/ops"
	"proverka/internal/pg"
	"proverka/internal/schema"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Схема и справочники: ошибка здесь — отказ от старта
	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	// 2. Журнал
	recorder, db, err := buildRecorder(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// 3. HTTP
	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(&api.App{
		Schemas:      reg,
		Ops:          ops.NewService(recorder, logger),
		Log:          logger,
		DefaultTable: cfg.DefaultTable,
		BodyLimit:    cfg.BodyLimit,
	})
	if err != nil {
		return err
	}
	return api.RunServer(ctx, cfg.Addr(), router, time.Duration(cfg.ShutdownTimeout), logger)
}

// buildRecorder: лог всегда, PostgreSQL — если задан dbUrl.
func buildRecorder(ctx context.Context, cfg config.Config, reg *schema.Registry, logger *slog.Logger) (journal.Recorder, *sql.DB, error) {
	logRec := journal.LogRecorder{Log: logger}
	if cfg.DBURL == "" {
		logger.Info("journal: log only (dbUrl not set)")
		return logRec, nil, nil
	}

	// DDL строится всегда: коллизия имён таблиц журнала — ошибка старта
	ddl, err := pg.GenerateDDL(cfg.JournalSchema, reg.Tables())
	if err != nil {
		return nil, nil, err
	}
	db, err := pg.Open(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := pg.ApplyDDL(ctx, db, ddl, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("journal tables ready", "schema", cfg.JournalSchema, "tables", reg.Len())
	}
	logger.Info("journal: postgres enabled", "schema", cfg.JournalSchema)
	return journal.Multi{pg.NewJournal(db, cfg.JournalSchema), logRec}, db, nil
}
