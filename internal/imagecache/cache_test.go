package imagecache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/domain"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type imageServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newImageServer(t *testing.T, handler http.HandlerFunc) *imageServer {
	t.Helper()

	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func newCache(t *testing.T, cfg config.ImageCacheConfig) *Cache {
	t.Helper()

	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 16
	}
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestResolveCachesImage(t *testing.T) {
	body := pngBytes(t)
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	c := newCache(t, config.ImageCacheConfig{})
	url := srv.URL + "/Mega/CoffeeHOT/Americano.png"

	img, err := c.Resolve(context.Background(), url)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Format != "png" || img.Bounds.Dx() != 4 || img.Bounds.Dy() != 3 {
		t.Errorf("Unexpected image %+v", img)
	}

	again, err := c.Resolve(context.Background(), url)
	if err != nil {
		t.Fatalf("Resolve cached: %v", err)
	}
	if again != img {
		t.Error("Expected the cached image instance")
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("Expected 1 network call, got %d", got)
	}

	if _, ok := c.Get(url); !ok {
		t.Error("Expected Get to find the cached image")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
		rawURL  string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "invalid url",
			rawURL: "not a url",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrInvalidURL) {
					t.Fatalf("Expected ErrInvalidURL, got %v", err)
				}
			},
		},
		{
			name:   "empty url",
			rawURL: "",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrInvalidURL) {
					t.Fatalf("Expected ErrInvalidURL, got %v", err)
				}
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var serverErr *domain.ServerError
				if !errors.As(err, &serverErr) || serverErr.Code != http.StatusInternalServerError {
					t.Fatalf("Expected ServerError(500), got %v", err)
				}
			},
		},
		{
			name: "not an image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>rate limited</html>"))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrDecoding) {
					t.Fatalf("Expected ErrDecoding, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, config.ImageCacheConfig{})

			rawURL := tt.rawURL
			if tt.handler != nil {
				srv := newImageServer(t, tt.handler)
				rawURL = srv.URL + "/img.png"
			}

			_, err := c.Resolve(context.Background(), rawURL)
			tt.check(t, err)
			if c.Len() != 0 {
				t.Errorf("Failed resolve must not store anything")
			}
		})
	}
}

func TestResolveTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/img.png"
	srv.Close()

	_, err := newCache(t, config.ImageCacheConfig{}).Resolve(context.Background(), url)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("Expected ErrTransport, got %v", err)
	}
}

func TestEvictionBound(t *testing.T) {
	body := pngBytes(t)
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	c := newCache(t, config.ImageCacheConfig{MaxEntries: 2})
	for _, name := range []string{"/a.png", "/b.png", "/c.png"} {
		if _, err := c.Resolve(context.Background(), srv.URL+name); err != nil {
			t.Fatalf("Resolve %s: %v", name, err)
		}
	}

	if c.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(srv.URL + "/a.png"); ok {
		t.Error("Expected least recently used entry to be evicted")
	}
}

// gatedHandler holds every request until the gate opens. arrived is closed
// once want requests have reached the server; later requests are counted
// but never block the test.
func gatedHandler(body []byte, want int32, arrived chan<- struct{}, gate <-chan struct{}) http.HandlerFunc {
	var seen atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		if seen.Add(1) == want {
			close(arrived)
		}
		<-gate
		_, _ = w.Write(body)
	}
}

func TestConcurrentMisses(t *testing.T) {
	body := pngBytes(t)

	tests := []struct {
		name         string
		singleFlight bool
		wantHits     int32
	}{
		// Both callers miss and both download.
		{name: "without single flight", singleFlight: false, wantHits: 2},
		{name: "with single flight", singleFlight: true, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arrived := make(chan struct{})
			gate := make(chan struct{})
			srv := newImageServer(t, gatedHandler(body, tt.wantHits, arrived, gate))

			c := newCache(t, config.ImageCacheConfig{SingleFlight: tt.singleFlight})
			url := srv.URL + "/same.png"

			var started, wg sync.WaitGroup
			errs := make(chan error, 2)
			for range 2 {
				started.Add(1)
				wg.Add(1)
				go func() {
					defer wg.Done()
					started.Done()
					_, err := c.Resolve(context.Background(), url)
					errs <- err
				}()
			}

			started.Wait()
			<-arrived
			// give the second caller time to join the flight still held at the gate
			time.Sleep(50 * time.Millisecond)
			close(gate)
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
			}
			if got := srv.hits.Load(); got != tt.wantHits {
				t.Errorf("Expected %d downloads, got %d", tt.wantHits, got)
			}
			if c.Len() != 1 {
				t.Errorf("Expected one cache entry, got %d", c.Len())
			}
		})
	}
}

func TestSingleFlightSurvivesLeaderCancel(t *testing.T) {
	body := pngBytes(t)
	arrived := make(chan struct{})
	gate := make(chan struct{})
	srv := newImageServer(t, gatedHandler(body, 1, arrived, gate))

	c := newCache(t, config.ImageCacheConfig{SingleFlight: true})
	url := srv.URL + "/shared.png"

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(leaderCtx, url)
		leaderErr <- err
	}()
	<-arrived

	followerErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(context.Background(), url)
		followerErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected the leader to see context.Canceled, got %v", err)
	}

	close(gate)
	if err := <-followerErr; err != nil {
		t.Fatalf("Follower: %v", err)
	}
	if _, ok := c.Get(url); !ok {
		t.Error("Expected the shared download to be cached")
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("Expected 1 download, got %d", got)
	}
}

func TestResolveKeepsRawBytes(t *testing.T) {
	body := append(pngBytes(t), '\n', ' ', '\n')
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	img, err := newCache(t, config.ImageCacheConfig{}).Resolve(context.Background(), srv.URL+"/padded.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if img.Size != len(body) {
		t.Errorf("Expected size %d, got %d", len(body), img.Size)
	}
}
