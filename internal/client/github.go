package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain"
	"kiosk/catalog/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// DirectoryClient lists the image files stored for one brand and category.
type DirectoryClient interface {
	FetchDirectory(ctx context.Context, brand domain.Brand, category domain.Category) ([]domain.DirectoryEntry, error)
}

type gitHubClient struct {
	rl            ratelimit.Limiter
	config        config.GitHubConfig
	timeout       time.Duration
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
}

func NewGitHubClient(cfg config.GitHubConfig, proxySupplier proxy.ProxySupplier) DirectoryClient {
	client := resty.New().
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetHeader("User-Agent", "kiosk-catalog")

	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &gitHubClient{
		rl:            rl,
		config:        cfg,
		timeout:       time.Duration(cfg.Timeout) * time.Second,
		httpClient:    client,
		proxySupplier: proxySupplier,
	}
}

func (c *gitHubClient) FetchDirectory(ctx context.Context, brand domain.Brand, category domain.Category) ([]domain.DirectoryEntry, error) {
	url, err := contentsURL(c.config.BaseURL, c.config.Owner, c.config.Repo, brand, category)
	if err != nil {
		return nil, err
	}

	c.rl.Take()

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.httpClient.R().
		SetContext(reqCtx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrTransport, url, err)
	}

	code := resp.StatusCode()
	if code < 200 || code >= 300 {
		if code == http.StatusForbidden && resp.Header().Get("X-RateLimit-Remaining") == "0" {
			c.rotateProxy()
		}
		return nil, fmt.Errorf("GET %s: %w", url, &domain.ServerError{Code: code})
	}

	var entries []domain.DirectoryEntry
	if err := json.Unmarshal(resp.Bytes(), &entries); err != nil {
		return nil, fmt.Errorf("%w: listing %s/%s: %v", domain.ErrDecoding, brand, category, err)
	}

	log.Debugf("Fetched %d directory entries for %s/%s", len(entries), brand.Segment(), category.Segment())
	return entries, nil
}

// rotateProxy moves later requests to the next proxy once GitHub reports the
// unauthenticated quota of the current egress address as exhausted.
func (c *gitHubClient) rotateProxy() {
	next := ""
	if c.proxySupplier != nil {
		next = c.proxySupplier.Get()
	}
	if next == "" {
		log.Warn("🚫 GitHub API quota exceeded; configure github.token or github.proxies")
		return
	}

	log.Warnf("🔄 GitHub API quota exceeded, switching to proxy %s", next)
	c.httpClient.SetProxy(next)
}
