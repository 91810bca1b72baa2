package server

import (
	"context"
	"fmt"

	"go-meeting-sync/core/cache"
	"go-meeting-sync/core/config"
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/storage"
	"go-meeting-sync/modules/calendar"
	calendarservice "go-meeting-sync/modules/calendar/service"
)

// App holds the process-wide dependencies shared by the HTTP server, the
// worker and one-shot commands.
type App struct {
	Config   *config.Config
	DB       database.Database
	Cache    cache.Cache
	Signer   storage.URLSigner
	Registry *events.Registry
	Calendar calendarservice.CalendarService
}

func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		AutoMigrate:     cfg.Database.AutoMigrate,
	})
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: db, Registry: events.NewRegistry()}

	if cfg.Redis.Enabled {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		app.Cache = rc
	} else {
		logger.Warn("Server:Bootstrap:Redis disabled, using in-process locks")
		app.Cache = cache.NewMemoryCache()
	}

	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Storage(cfg.Storage)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Signer = s3
	}

	app.Calendar, err = calendar.NewService(db, cfg, app.Cache, app.Signer, app.Registry)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.Warn("Server:Close:Cache", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("Server:Close:Database", "error", err)
		}
	}
}
