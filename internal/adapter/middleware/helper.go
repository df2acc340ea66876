package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"intranet-approval/pkg/id"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	idempotencyPrefix = "idemp:approval:"
)

// stamp identifies one client attempt of a mutating call.
type stamp struct {
	ID string
	At time.Time
}

// readStamp validates both idempotency headers against now.
func readStamp(h http.Header, now time.Time) (stamp, error) {
	reqID := strings.TrimSpace(h.Get(HeaderRequestID))
	if reqID == "" {
		return stamp{}, errors.New("missing " + HeaderRequestID)
	}
	if !validReqID(reqID) {
		return stamp{}, errors.New("invalid " + HeaderRequestID + " format")
	}
	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return stamp{}, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return stamp{}, errors.New(HeaderRequestAt + " too skewed")
	}
	return stamp{ID: reqID, At: at}, nil
}

// validReqID accepts our own 32-hex ids or a canonical lowercase RFC 4122 UUID.
func validReqID(s string) bool {
	if id.Valid(s) {
		return true
	}
	u, err := uuid.Parse(s)
	if err != nil || u.String() != s {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5 && u.Variant() == uuid.RFC4122
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339(Nano)
// with an explicit zone. Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also parses plain RFC3339
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey scopes a stored response to method, route pattern, actor and
// client request id. The store adds idempotencyPrefix.
func replayKey(method, route, actorID, requestID string) string {
	return strings.ToLower(method) + ":" + route + ":" + actorID + ":" + requestID
}
