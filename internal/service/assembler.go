package service

import (
	"context"
	"fmt"
	"time"

	"kiosk/catalog/internal/client"
	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain"
	"kiosk/catalog/internal/imagecache"
	"kiosk/catalog/internal/loader"
	"kiosk/catalog/internal/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is one successfully assembled catalog.
type Result struct {
	RunID       string
	AssembledAt time.Time
	Catalog     domain.Catalog
}

// Assembler builds the sellable catalog: the bundled document joined with the
// image listing of the storage repository.
type Assembler struct {
	loader              loader.Loader
	directories         client.DirectoryClient
	images              imagecache.Resolver
	metrics             *metrics.Metrics
	bestEffort          bool
	maxConcurrentImages int
}

func NewAssembler(
	loader loader.Loader,
	directories client.DirectoryClient,
	images imagecache.Resolver,
	metrics *metrics.Metrics,
	cfg config.AssemblyConfig,
) *Assembler {
	return &Assembler{
		loader:              loader,
		directories:         directories,
		images:              images,
		metrics:             metrics,
		bestEffort:          cfg.FailurePolicy == config.FailurePolicyBestEffort,
		maxConcurrentImages: cfg.MaxConcurrentImages,
	}
}

// Assemble loads the catalog, lists every brand/category directory, primes
// the image cache and joins images onto catalog entries. Any failure aborts
// the run; nothing from a failed run is kept.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)
	start := time.Now()

	result, err := a.assemble(ctx, logger)
	if err != nil {
		a.metrics.ObserveAssembly(start, 0, domain.Kind(err))
		logger.Errorf("❌ Catalog assembly failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}

	result.RunID = runID
	a.metrics.ObserveAssembly(start, len(result.Catalog), "")
	logger.Infof("✅ Catalog assembled: %d entries in %v", len(result.Catalog), time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (a *Assembler) assemble(ctx context.Context, logger *log.Entry) (*Result, error) {
	catalog, err := a.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Infof("📄 Loaded %d catalog entries", len(catalog))

	entries, err := a.GatherDirectories(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("📂 Gathered %d directory entries", len(entries))

	if err := a.PrimeCache(ctx, entries); err != nil {
		return nil, err
	}

	joined := Join(catalog, entries)

	matched := 0
	for _, entry := range joined {
		if entry.HasImage() {
			matched++
		}
	}
	logger.Infof("🔗 Matched images for %d of %d entries", matched, len(joined))

	return &Result{
		AssembledAt: time.Now(),
		Catalog:     joined,
	}, nil
}

// GatherDirectories fetches every directory of domain.FetchSequence
// concurrently. Results are appended in completion order by this goroutine
// only. Under the all-or-nothing policy the first failure cancels the
// remaining fetches and fails the whole gather.
func (a *Assembler) GatherDirectories(ctx context.Context) ([]domain.DirectoryEntry, error) {
	g, gctx := errgroup.WithContext(ctx)
	resultsCh := make(chan []domain.DirectoryEntry, len(domain.FetchSequence))

	for _, pair := range domain.FetchSequence {
		g.Go(func() error {
			log.Debugf("🔄 Fetching directory %s", pair)

			entries, err := a.directories.FetchDirectory(gctx, pair.Brand, pair.Category)
			a.metrics.ObserveDirectoryFetch(pair.Brand.String(), pair.Category.String(), domain.Kind(err))
			if err != nil {
				if a.bestEffort && ctx.Err() == nil {
					log.Warnf("⚠️ Skipping directory %s: %v", pair, err)
					return nil
				}
				return fmt.Errorf("failed to fetch directory %s: %w", pair, err)
			}

			resultsCh <- entries
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		close(resultsCh)
	}()

	all := make([]domain.DirectoryEntry, 0)
	for entries := range resultsCh {
		all = append(all, entries...)
	}

	if err := <-errCh; err != nil {
		return nil, err
	}
	return all, nil
}

// PrimeCache resolves every distinct download URL through the image cache
// concurrently. Entries without a download URL are skipped.
func (a *Assembler) PrimeCache(ctx context.Context, entries []domain.DirectoryEntry) error {
	urls := distinctURLs(entries)
	if len(urls) == 0 {
		return nil
	}

	log.Infof("🖼️ Priming image cache with %d images", len(urls))

	g, gctx := errgroup.WithContext(ctx)
	if a.maxConcurrentImages > 0 {
		g.SetLimit(a.maxConcurrentImages)
	}

	for _, url := range urls {
		g.Go(func() error {
			if _, err := a.images.Resolve(gctx, url); err != nil {
				if a.bestEffort && ctx.Err() == nil {
					log.Warnf("⚠️ Skipping image %s: %v", url, err)
					return nil
				}
				return fmt.Errorf("failed to cache image %s: %w", url, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func distinctURLs(entries []domain.DirectoryEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	urls := make([]string, 0, len(entries))

	for _, entry := range entries {
		url := entry.URL()
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	return urls
}
