package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/model"
	"github.com/stridescan/stridescan/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{
			ctx:     ctx,
			store:   env.Store,
			analyze: env.Pipeline.AnalyzeSecurity,
			process: env.Pipeline.ProcessText,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer carries the dependencies of the HTTP handlers. ctx is the server
// lifetime context; background analysis work outlives individual requests
// but not the server.
type apiServer struct {
	ctx     context.Context
	store   store.Store
	analyze func(ctx context.Context, text string) (*model.AnalyzeResult, error)
	process func(ctx context.Context, text, query string) []string
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/chunks", s.handleChunks)
	r.Get("/api/runs", s.handleListRuns)
	r.Get("/api/runs/{id}", s.handleGetRun)

	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	run, err := s.store.CreateRun(r.Context(), len(req.Text))
	if err != nil {
		zap.L().Error("api: create run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	go s.runAnalysis(run.ID, req.Text)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     run.ID,
		"status": string(run.Status),
	})
}

// runAnalysis executes one queued run in the background against the server
// lifetime context.
func (s *apiServer) runAnalysis(runID, text string) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.store.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
		zap.L().Error("api: mark run running failed", zap.String("run", runID), zap.Error(err))
		return
	}

	result, err := s.analyze(ctx, text)
	if err != nil {
		zap.L().Error("api: analysis failed", zap.String("run", runID), zap.Error(err))
		if ferr := s.store.FailRun(ctx, runID, err.Error()); ferr != nil {
			zap.L().Error("api: mark run failed failed", zap.String("run", runID), zap.Error(ferr))
		}
		return
	}

	if err := s.store.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Error("api: save result failed", zap.String("run", runID), zap.Error(err))
		return
	}
	zap.L().Info("api: analysis complete",
		zap.String("run", runID),
		zap.Int("segments", result.TotalChunks),
	)
}

func (s *apiServer) handleChunks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	chunks := s.process(r.Context(), req.Text, req.Query)
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
