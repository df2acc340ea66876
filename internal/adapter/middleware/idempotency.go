package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"intranet-approval/internal/infrastructure/cache"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// a claim not finished within this window is released
	pendingTTL = 60 * time.Second
	// allowed client/server skew for Ax-Request-At
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// replay is what the store keeps per key: a pending claim, then the final response.
type replay struct {
	Pending    bool      `json:"pending"`
	Status     int       `json:"status,omitempty"`
	Body       []byte    `json:"body,omitempty"`
	BodySHA256 string    `json:"body_sha256"`
	RequestAt  time.Time `json:"request_at"`
	StoredAt   time.Time `json:"stored_at"`
}

// captureWriter tees the response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// IdempotencyMiddleware replays the stored response of a mutating call that
// repeats its Ax-Request-Id. Keys are scoped per actor, so it must run after
// BearerAuth. Server errors (5xx) are not kept; the client may retry them.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, logger zerolog.Logger) echo.MiddlewareFunc {
	store := cache.NewJSON[replay](rdb, idempotencyPrefix, ttl)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			st, err := readStamp(req.Header, nowUTC())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error(), "code": "bad_request"})
			}
			actorID := ActorID(c)
			if actorID == "" {
				return unauthorized(c, "no authenticated actor")
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			sum := bodyHash(body)

			key := replayKey(req.Method, c.Path(), actorID, st.ID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			won, err := store.Claim(ctx, key, replay{Pending: true, BodySHA256: sum, RequestAt: st.At, StoredAt: nowUTC()}, pendingTTL)
			if err != nil {
				logger.Error().Err(err).Str("key", key).Msg("idempotency claim failed")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable", "code": "persistence"})
			}
			if !won {
				return replayOrConflict(ctx, c, store, key, sum, logger)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				c.Error(err)
			}

			// recorded even when the client has gone away
			saveCtx, saveCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer saveCancel()
			if cw.status >= http.StatusInternalServerError {
				if err := store.Delete(saveCtx, key); err != nil {
					logger.Warn().Err(err).Str("key", key).Msg("idempotency claim release failed")
				}
				return nil
			}
			final := replay{Status: cw.status, Body: cw.buf.Bytes(), BodySHA256: sum, RequestAt: st.At, StoredAt: nowUTC()}
			if err := store.Set(saveCtx, key, final); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("idempotency entry save failed")
			}
			return nil
		}
	}
}

func replayOrConflict(ctx context.Context, c echo.Context, store *cache.JSON[replay], key, sum string, logger zerolog.Logger) error {
	cur, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("idempotency entry load failed")
	}
	if ok && cur.BodySHA256 != sum {
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body", "code": "idempotency_mismatch"})
	}
	if ok && !cur.Pending && cur.Status != 0 {
		c.Response().Header().Set("Ax-Idempotent-Replay", "true")
		return c.Blob(cur.Status, echo.MIMEApplicationJSON, cur.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress", "code": "in_progress"})
}
