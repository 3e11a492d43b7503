package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"AUScraper/internal/logger"
	"AUScraper/internal/models"
	"AUScraper/pkg/config"
)

// Repository is the read side of the corpus index.
type Repository interface {
	CountRecords(filters models.RecordFilters) (int, error)
	GetRecords(filters models.RecordFilters) ([]models.DetailRecord, error)
	GetRuns(limit int) ([]models.RunRecord, error)
}

const (
	defaultLimit = 20
	maxLimit     = 200
)

// NewHandler routes the read-only corpus API.
func NewHandler(repo Repository) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /records", recordsHandler(repo))
	mux.HandleFunc("GET /runs", runsHandler(repo))
	return mux
}

// Start serves the API on cfg.Server.Addr until ctx is cancelled.
func Start(ctx context.Context, repo Repository, cfg *config.Config) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewHandler(repo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", cfg.Server.Addr, "endpoints", []string{"/records", "/runs"})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func recordsHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. Parse pagination and filter parameters
		queryParams := r.URL.Query()
		page, _ := strconv.Atoi(queryParams.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(queryParams.Get("limit"))
		if limit < 1 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		filters := models.RecordFilters{
			Topic:    queryParams.Get("topic"),
			Industry: queryParams.Get("industry"),
			Product:  queryParams.Get("product"),
			Limit:    limit,
			Offset:   (page - 1) * limit,
		}

		// 2. Get total count for pagination
		total, err := repo.CountRecords(filters)
		if err != nil {
			logger.Error("failed to count records", "error", err)
			http.Error(w, "Failed to count records", http.StatusInternalServerError)
			return
		}

		// 3. Get the requested page
		records, err := repo.GetRecords(filters)
		if err != nil {
			logger.Error("failed to get records", "error", err)
			http.Error(w, "Failed to get records", http.StatusInternalServerError)
			return
		}

		writeJSON(w, models.RecordsResponse{
			Data: records,
			Pagination: models.Pagination{
				TotalPages:   int(math.Ceil(float64(total) / float64(limit))),
				CurrentPage:  page,
				TotalRecords: total,
			},
		})
	}
}

func runsHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := repo.GetRuns(limit)
		if err != nil {
			logger.Error("failed to get runs", "error", err)
			http.Error(w, "Failed to get runs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, runs)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
