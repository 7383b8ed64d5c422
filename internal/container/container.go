package container

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"kiosk/catalog/internal/api"
	"kiosk/catalog/internal/client"
	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain/task"
	"kiosk/catalog/internal/imagecache"
	"kiosk/catalog/internal/loader"
	"kiosk/catalog/internal/metrics"
	"kiosk/catalog/internal/order"
	"kiosk/catalog/internal/proxy"
	"kiosk/catalog/internal/queue"
	"kiosk/catalog/internal/service"
	"kiosk/catalog/internal/state"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type catalogAssembler interface {
	Assemble(ctx context.Context) (*service.Result, error)
}

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.DirectoryClient
	Images       *imagecache.Cache
	Queue        queue.Queue // nil unless publishing is enabled
	StateManager state.StateManager
	Orders       *order.Ledger
	Metrics      *metrics.Metrics
	Handler      http.Handler

	assembler catalogAssembler
	registry  *prometheus.Registry
	refreshMu sync.Mutex // one assembly at a time, so snapshots land in run order
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:       cfg,
		StateManager: state.NewStateManager(),
		Orders:       order.NewLedger(),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.registry = registry
	container.Metrics = metrics.New(registry)

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.GitHub.Proxies, cfg.GitHub.BaseURL)
	container.Client = client.NewGitHubClient(cfg.GitHub, proxySupplier)

	images, err := imagecache.New(cfg.ImageCache, container.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image cache: %w", err)
	}
	container.Images = images

	container.assembler = service.NewAssembler(
		loader.New(cfg.Catalog.Path),
		container.Client,
		images,
		container.Metrics,
		cfg.Assembly,
	)

	if cfg.Publish.Enabled {
		redisQueue, err := queue.NewRedisQueue(ctx, cfg.Publish)
		if err != nil {
			return nil, err
		}
		container.Queue = redisQueue
	}

	container.Handler = api.NewHandler(&api.Server{
		State:     container.StateManager,
		Orders:    container.Orders,
		Refresher: container,
	}, api.HTTPDeps{
		Registry: registry,
		Metrics:  container.Metrics,
	})

	return container, nil
}

// Refresh assembles a fresh catalog and makes it the current one. A failed
// assembly leaves the current catalog untouched.
func (c *Container) Refresh(ctx context.Context) (state.Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	result, err := c.assembler.Assemble(ctx)
	if err != nil {
		return state.Snapshot{}, err
	}

	snapshot := state.Snapshot{
		RunID:       result.RunID,
		AssembledAt: result.AssembledAt,
		Catalog:     result.Catalog,
	}
	c.StateManager.Replace(snapshot)

	if c.Queue != nil {
		id, err := c.Queue.AddTask(ctx, &task.CatalogSnapshotTask{
			ID:          result.RunID,
			AssembledAt: result.AssembledAt,
			Entries:     result.Catalog,
		})
		if err != nil {
			log.WithField("run_id", result.RunID).Warnf("⚠️ Failed to publish catalog snapshot: %v", err)
		} else {
			log.WithField("run_id", result.RunID).Infof("📤 Published catalog snapshot %s", id)
		}
	}

	return snapshot, nil
}

// Run assembles the catalog once. With the server enabled it then serves the
// kiosk API until ctx is cancelled; a failed first assembly is logged and the
// catalog can be refreshed over HTTP. Without the server the assembly error
// is returned.
func (c *Container) Run(ctx context.Context) error {
	_, err := c.Refresh(ctx)

	if !c.Config.Server.Enabled {
		return err
	}
	if err != nil {
		log.Errorf("❌ Initial catalog assembly failed: %v", err)
	}

	return c.serve(ctx)
}

func (c *Container) serve(ctx context.Context) error {
	addr := net.JoinHostPort(c.Config.Server.Host, strconv.Itoa(c.Config.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("🛑 Shutdown requested")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			return err
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
