package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kiosk/catalog/internal/domain"
	"kiosk/catalog/internal/metrics"
	"kiosk/catalog/internal/order"
	"kiosk/catalog/internal/state"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Refresher re-runs catalog assembly from scratch and publishes the result.
type Refresher interface {
	Refresh(ctx context.Context) (state.Snapshot, error)
}

type Server struct {
	State     state.StateManager
	Orders    *order.Ledger
	Refresher Refresher
}

type HTTPDeps struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

type catalogResponse struct {
	RunID       string                `json:"run_id"`
	AssembledAt time.Time             `json:"assembled_at"`
	Entries     []domain.CatalogEntry `json:"entries"`
}

type addItemRequest struct {
	Brand string `json:"brand"`
	Name  string `json:"name"`
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(deps.Metrics.Middleware(routePatternOrPath))

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Mount("/", s.Routes())
	return r
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.State.Current(); !ok {
			writeError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/catalog", s.getCatalog)
	r.Post("/catalog/refresh", s.refreshCatalog)

	r.Route("/order", func(r chi.Router) {
		r.Get("/", s.getOrder)
		r.Delete("/", s.clearOrder)
		r.Post("/items", s.addItem)
		r.Post("/items/{brand}/{name}/increment", s.incrementItem)
		r.Post("/items/{brand}/{name}/decrement", s.decrementItem)
		r.Delete("/items/{brand}/{name}", s.removeItem)
	})

	return r
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.State.Current()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
		return
	}

	entries := snapshot.Catalog
	brandParam, categoryParam := r.URL.Query().Get("brand"), r.URL.Query().Get("category")

	if brandParam != "" || categoryParam != "" {
		var brand domain.Brand
		var category domain.Category
		var err error

		if brandParam != "" {
			if brand, err = domain.ParseBrand(brandParam); err != nil {
				writeError(w, r, http.StatusBadRequest, "unknown brand", map[string]any{"brand": brandParam})
				return
			}
		}
		if categoryParam != "" {
			if category, err = domain.ParseCategory(categoryParam); err != nil {
				writeError(w, r, http.StatusBadRequest, "unknown category", map[string]any{"category": categoryParam})
				return
			}
		}

		entries = entries.Filter(brand, category)
	}

	writeJSON(w, http.StatusOK, catalogResponse{
		RunID:       snapshot.RunID,
		AssembledAt: snapshot.AssembledAt,
		Entries:     entries,
	})
}

func (s *Server) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.Refresher.Refresh(r.Context())
	if err != nil {
		log.Warnf("❌ Catalog refresh failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "catalog assembly failed", map[string]any{"kind": domain.Kind(err)})
		return
	}

	writeJSON(w, http.StatusOK, catalogResponse{
		RunID:       snapshot.RunID,
		AssembledAt: snapshot.AssembledAt,
		Entries:     snapshot.Catalog,
	})
}

func (s *Server) getOrder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Orders.Summary())
}

func (s *Server) clearOrder(w http.ResponseWriter, _ *http.Request) {
	s.Orders.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}

	brand, err := domain.ParseBrand(req.Brand)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown brand", map[string]any{"brand": req.Brand})
		return
	}

	snapshot, ok := s.State.Current()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
		return
	}

	entry, ok := snapshot.Catalog.Find(brand, req.Name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "product not found", map[string]any{"brand": req.Brand, "name": req.Name})
		return
	}

	writeJSON(w, http.StatusCreated, s.Orders.Add(entry))
}

func (s *Server) incrementItem(w http.ResponseWriter, r *http.Request) {
	s.updateItem(w, r, s.Orders.Increment)
}

func (s *Server) decrementItem(w http.ResponseWriter, r *http.Request) {
	s.updateItem(w, r, s.Orders.Decrement)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request, update func(domain.Brand, string) (order.Line, error)) {
	brand, name := domain.Brand(chi.URLParam(r, "brand")), chi.URLParam(r, "name")

	line, err := update(brand, name)
	if err != nil {
		s.writeOrderError(w, r, err, brand, name)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	brand, name := domain.Brand(chi.URLParam(r, "brand")), chi.URLParam(r, "name")

	if err := s.Orders.Remove(brand, name); err != nil {
		s.writeOrderError(w, r, err, brand, name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeOrderError(w http.ResponseWriter, r *http.Request, err error, brand domain.Brand, name string) {
	if errors.Is(err, order.ErrLineNotFound) {
		writeError(w, r, http.StatusNotFound, "not in order", map[string]any{"brand": brand, "name": name})
		return
	}
	writeError(w, r, http.StatusInternalServerError, "server error", nil)
}
