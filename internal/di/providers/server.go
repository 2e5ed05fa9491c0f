package providers

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/linkstashapp/linkstash-server/internal/api"
	"github.com/linkstashapp/linkstash-server/internal/backup"
	"github.com/linkstashapp/linkstash-server/internal/config"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/logger"
	"github.com/linkstashapp/linkstash-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	fetcher := do.MustInvoke[*fetch.Fetcher](i)

	services := &api.Services{
		Auth:         do.MustInvoke[*service.AuthService](i),
		Link:         do.MustInvoke[*service.LinkService](i),
		Tag:          do.MustInvoke[*service.TagService](i),
		Suggest:      do.MustInvoke[*service.SuggestService](i),
		Usage:        do.MustInvoke[*service.UsageService](i),
		Subscription: do.MustInvoke[*service.SubscriptionService](i),
		Search:       do.MustInvoke[*service.SearchService](i),
		Import:       do.MustInvoke[*service.ImportService](i),
	}

	backupDir := filepath.Join(cfg.Data.BasePath, "backups")
	backupSvc := backup.NewBackupService(storeHandle.Store, backupDir, cfg.Server.Name, "dev", log.Logger)
	restoreSvc := backup.NewRestoreService(storeHandle.Store, log.Logger)

	handler := api.NewServer(storeHandle.Store, services, fetcher, backupSvc, restoreSvc, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
