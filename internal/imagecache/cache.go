package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"time"

	// decoders for the formats stored in the image repository
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain"
	"kiosk/catalog/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"resty.dev/v3"
)

// Image is a decoded product image.
type Image struct {
	URL    string
	Format string
	Bounds image.Rectangle
	Size   int
	Image  image.Image
}

// Resolver returns the image behind a download URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*Image, error)
}

// Cache maps download URLs to decoded images. Safe for concurrent use.
// Entries live until evicted by the entry bound or until the process exits.
//
// Without single flight, concurrent misses on one URL each download and
// store the image; the last store wins.
type Cache struct {
	entries    *lru.Cache[string, *Image]
	httpClient *resty.Client
	timeout    time.Duration
	group      *singleflight.Group
	metrics    *metrics.Metrics
}

func New(cfg config.ImageCacheConfig, m *metrics.Metrics) (*Cache, error) {
	entries, err := lru.NewWithEvict[string, *Image](cfg.MaxEntries, func(key string, _ *Image) {
		log.Debugf("Evicted cached image %s", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	c := &Cache{
		entries:    entries,
		httpClient: resty.New().SetHeader("Accept", "image/*"),
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		metrics:    m,
	}
	if cfg.SingleFlight {
		c.group = new(singleflight.Group)
	}

	return c, nil
}

// Get returns a cached image without any I/O.
func (c *Cache) Get(rawURL string) (*Image, bool) {
	return c.entries.Get(rawURL)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Resolve(ctx context.Context, rawURL string) (*Image, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	if img, ok := c.entries.Get(rawURL); ok {
		c.metrics.ObserveCacheLookup(true)
		return img, nil
	}
	c.metrics.ObserveCacheLookup(false)

	if c.group == nil {
		return c.fetchAndStore(ctx, rawURL)
	}

	// The shared download must not die with whichever caller started it;
	// each caller leaves through its own ctx below.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(rawURL, func() (any, error) {
		return c.fetchAndStore(shared, rawURL)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("image %s: %w", rawURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Image), nil
	}
}

func (c *Cache) fetchAndStore(ctx context.Context, rawURL string) (*Image, error) {
	img, err := c.fetch(ctx, rawURL)
	c.metrics.ObserveImageFetch(domain.Kind(err))
	if err != nil {
		return nil, err
	}

	c.entries.Add(rawURL, img)
	return img, nil
}

func (c *Cache) fetch(ctx context.Context, rawURL string) (*Image, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.httpClient.R().
		SetContext(reqCtx).
		Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("image request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrTransport, rawURL, err)
	}

	code := resp.StatusCode()
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("GET %s: %w", rawURL, &domain.ServerError{Code: code})
	}

	body := resp.Bytes()
	decoded, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", domain.ErrDecoding, rawURL, err)
	}

	log.Debugf("Cached %s image %s (%d bytes)", format, rawURL, len(body))
	return &Image{
		URL:    rawURL,
		Format: format,
		Bounds: decoded.Bounds(),
		Size:   len(body),
		Image:  decoded,
	}, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", domain.ErrInvalidURL, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", domain.ErrInvalidURL, rawURL)
	}
	return nil
}
