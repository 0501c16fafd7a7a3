package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/pipeline"
	"github.com/sells-group/assessment-cli/internal/registry"
)

// confidenceScore is reported with every text advice response.
const confidenceScore = 0.85

const maxBodyBytes = 1 << 20

var servePort int

// adviser runs the advice pipeline for one submission.
type adviser interface {
	Run(ctx context.Context, sub *model.Submission) (*model.AdviceResult, error)
}

// api holds the handler dependencies.
type api struct {
	adviser adviser
	health  *monitoring.Checker
	metrics *monitoring.Metrics
	now     func() time.Time
	newID   func() string
}

func newAPI(a adviser, health *monitoring.Checker, metrics *monitoring.Metrics) *api {
	return &api{
		adviser: a,
		health:  health,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

type adviceRequest struct {
	Submission *model.Submission
	UserID     string
}

type adviceResponse struct {
	Advice          string  `json:"advice"`
	Timestamp       string  `json:"timestamp"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type reportResponse struct {
	Report    any    `json:"report"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
}

type saveReportResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	ReportID  string `json:"report_id"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the advice HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(newAPI(env.Pipeline, env.Health, env.Metrics), cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Strings("cors_origins", cfg.Server.CORSOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter wires middleware and routes. It is separate from the serve
// command so the HTTP surface can be tested without a listener.
func buildRouter(a *api, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/llm-advice", a.handleAdvice)
		r.Post("/save-user-report", a.handleSaveReport)
	})

	return r
}

// requestLogger logs one line per request and counts it by route pattern.
func requestLogger(metrics *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.ObserveHTTP(route, status)

			zap.L().Info("request.complete",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	report := a.health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (a *api) handleAdvice(w http.ResponseWriter, r *http.Request) {
	format, err := pipeline.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	req, status, err := decodeAdviceRequest(w, r)
	if err != nil {
		var verr *model.ValidationError
		code := "invalid_request"
		if errors.As(err, &verr) {
			code = "validation_error"
		}
		writeError(w, status, code, err.Error())
		return
	}

	result, err := a.adviser.Run(r.Context(), req.Submission)
	if err != nil {
		var rerr *registry.RuleLoadError
		if errors.As(err, &rerr) {
			zap.L().Error("advice: rule table unavailable", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "rule_load_error", rerr.Error())
			return
		}
		zap.L().Error("advice: pipeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "advice generation failed")
		return
	}

	ts := a.now().UTC().Format(time.RFC3339)
	if format == pipeline.FormatText {
		writeJSON(w, http.StatusOK, adviceResponse{
			Advice:          pipeline.RenderText(result.Report),
			Timestamp:       ts,
			ConfidenceScore: confidenceScore,
		})
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Report:    pipeline.Render(result.Report, format),
		Timestamp: ts,
		UserID:    req.UserID,
	})
}

// decodeAdviceRequest reads {"assessmentData": {...}, "userId": "..."} and
// returns the status to report on failure.
func decodeAdviceRequest(w http.ResponseWriter, r *http.Request) (*adviceRequest, int, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, http.StatusBadRequest, eris.New("request body must be a JSON object")
	}

	sub, err := model.SubmissionFromResult(root.Get("assessmentData"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &adviceRequest{Submission: sub, UserID: root.Get("userId").String()}, http.StatusOK, nil
}

func (a *api) handleSaveReport(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object")
		return
	}

	id := a.newID()
	zap.L().Info("user report received",
		zap.String("report_id", id),
		zap.String("user_id", root.Get("userId").String()),
		zap.Int("bytes", len(body)),
	)

	writeJSON(w, http.StatusOK, saveReportResponse{
		Status:    "success",
		Message:   "Report saved successfully",
		Timestamp: a.now().UTC().Format(time.RFC3339),
		ReportID:  id,
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read request body")
	}
	if !gjson.ValidBytes(body) {
		return nil, eris.New("request body is not valid JSON")
	}
	return body, nil
}

// writeJSON encodes v before committing the status line, so a value that
// cannot be encoded yields a 500 error envelope instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: errorDetail{
			Code:    "internal_error",
			Message: "response could not be encoded",
		}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
