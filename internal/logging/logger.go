package logging

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	terrainerrors "terraincore/internal/errors"
	"terraincore/internal/terrain"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	loggerKey        contextKey = "logger"
)

// InitLogger initializes the global logger.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware correlates a request to a log line and, where the route names a
// world (the `{id}` chi param used throughout cmd/terrain-service/api), to
// that world's id — so a rebuild's stage report and a request's "completed"
// line can be grepped together by world_id rather than only by correlation
// id. When the param is already resolved on entry (the middleware mounted
// inside the routed group), the request-scoped logger carries world_id too;
// when mounted ahead of routing, as NewRouter does, only the "completed"
// line does.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		logCtx := log.With().Str("correlation_id", correlationID)
		worldLogged := false
		if worldParam := chi.URLParam(r, "id"); worldParam != "" {
			if worldID, err := uuid.Parse(worldParam); err == nil {
				logCtx = logCtx.Str("world_id", worldID.String())
				worldLogged = true
			}
		}
		logger := logCtx.Logger()

		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		ctx = context.WithValue(ctx, loggerKey, logger)

		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("request started")

		next.ServeHTTP(ww, r.WithContext(ctx))

		completed := logger.Info()
		if !worldLogged {
			// ahead of routing the {id} param is empty on entry; chi's route
			// context holds it once next has routed the request
			if worldID, err := uuid.Parse(chi.URLParam(r, "id")); err == nil {
				completed = completed.Str("world_id", worldID.String())
			}
		}
		completed.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration_ms", time.Since(start)).
			Msg("request completed")
	})
}

// FromContext returns the logger from the context, or the global logger if not found.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return &logger
	}
	return &log.Logger
}

// GetCorrelationID returns the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// LogError logs an error with context.
func LogError(ctx context.Context, err error, message string, fields map[string]interface{}) {
	logger := FromContext(ctx)
	event := logger.Error().Err(err)

	for k, v := range fields {
		event = event.Interface(k, v)
	}

	event.Msg(message)
}

// LogInfo logs an info message with context.
func LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	logger := FromContext(ctx)
	event := logger.Info()

	for k, v := range fields {
		event = event.Interface(k, v)
	}

	event.Msg(message)
}

// LogStageReport logs which pipeline stages ran fresh versus were reused by
// move, keyed by world id and the terrain version the rebuild produced. This
// is the terrain domain's counterpart to a generic request log line: it
// turns the pipeline's in-memory dirty-propagation bookkeeping
// (terrain.Pipeline.LastRun) into a grep-able record of which stages a given
// rebuild actually recomputed.
func LogStageReport(ctx context.Context, worldID uuid.UUID, terrainVersion int64, report []terrain.StageReport) {
	logger := FromContext(ctx)
	event := logger.Info().
		Str("world_id", worldID.String()).
		Int64("terrain_version", terrainVersion)
	for _, stage := range report {
		event = event.Bool(string(stage.Stage)+"_reused", stage.Reused)
	}
	event.Msg("pipeline stage report")
}

// LogBug logs an "impossible invariant" failure recovered from a pipeline
// panic, keyed by the BugError's stable id so repeated occurrences of the
// same invariant violation group together in log search.
func LogBug(ctx context.Context, worldID uuid.UUID, bug *terrainerrors.BugError) {
	FromContext(ctx).Error().
		Str("world_id", worldID.String()).
		Str("bug_id", bug.ID).
		Str("detail", bug.Detail).
		Msg("terrain pipeline invariant violated")
}
