package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const (
	maxParallelChecks = 16
	checkTimeout      = 5 * time.Second
)

// ProxySupplier hands out egress proxies in round-robin order.
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier keeps the proxies through which probeURL answers with a
// non-error status. Probing happens in parallel; order of the surviving
// proxies follows the input order.
func NewProxySupplier(ctx context.Context, proxies []string, probeURL string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	log.Infof("🔄 Testing %d proxies in parallel...", len(proxies))

	usable := make([]bool, len(proxies))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelChecks)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			usable[i] = isProxyValid(ctx, proxyURL, probeURL)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, proxyURL := range proxies {
		if usable[i] {
			valid = append(valid, proxyURL)
		}
	}

	log.Infof("✅ Proxy supplier ready with %d of %d proxies", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}
}

// Get returns the next proxy URL, or "" when none are usable.
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func isProxyValid(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(checkTimeout).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(probeURL)
	if err != nil {
		log.Infof("❌ Proxy %s unusable: %v", proxyURL, err)
		return false
	}

	if resp.IsError() {
		log.Infof("❌ Proxy %s unusable, status %s", proxyURL, resp.Status())
		return false
	}

	log.Debugf("✅ Proxy %s is working", proxyURL)
	return true
}
