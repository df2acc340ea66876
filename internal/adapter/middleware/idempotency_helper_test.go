package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"
)

func Test_bodyHash(t *testing.T) {
	data := []byte(`{"category":"expense"}`)
	sum := sha256.Sum256(data)
	if got, want := bodyHash(data), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("bodyHash mismatch: got %s want %s", got, want)
	}
}

func Test_nowUTC(t *testing.T) {
	u := nowUTC()
	if u.Location() != time.UTC {
		t.Fatalf("nowUTC must be UTC, got %v", u.Location())
	}
	if d := time.Since(u); d < 0 || d > time.Second {
		t.Fatalf("nowUTC too far from now: %v", d)
	}
}

func Test_replayKey(t *testing.T) {
	k := replayKey("PUT", "/approvals/lines/:line_id/approve", "E002", strings.Repeat("a", 32))
	want := "put:/approvals/lines/:line_id/approve:E002:" + strings.Repeat("a", 32)
	if k != want {
		t.Fatalf("replayKey = %q, want %q", k, want)
	}
}

func Test_validReqID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", true}, // uuid v4
		{"3f9a6a1b-3d54-1fbe-8b3a-6b3e8d6b2c88", true}, // uuid v1
		{strings.Repeat("a", 32), true},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", true},
		{"", false},
		{strings.Repeat("A", 32), false},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8", false},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880", false},
		{strings.Repeat("z", 32), false},
		{"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88", false}, // uppercase uuid
		{"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88", false}, // version 9
		{"3f9a6a1b-3d54-4fbe-cb3a-6b3e8d6b2c88", false}, // not RFC 4122 variant
		{"urn:uuid:3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", false},
	}
	for _, tc := range tests {
		if got := validReqID(tc.in); got != tc.want {
			t.Errorf("validReqID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func Test_parseRequestAt(t *testing.T) {
	sec := time.Now().Unix()
	ms := time.Now().UnixMilli()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch seconds", strconv.FormatInt(sec, 10), time.Unix(sec, 0).UTC()},
		{"epoch millis", strconv.FormatInt(ms, 10), time.UnixMilli(ms).UTC()},
		{"rfc3339 offset", "2025-09-05T10:00:00+07:00", time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)},
		{"rfc3339 zulu", "2025-09-05T03:00:00Z", time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)},
		{"rfc3339 nano", "2025-09-05T03:00:00.123456789Z", time.Date(2025, 9, 5, 3, 0, 0, 123456789, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRequestAt(tc.raw)
			if err != nil {
				t.Fatalf("parseRequestAt(%q): %v", tc.raw, err)
			}
			if !got.Equal(tc.want) || got.Location() != time.UTC {
				t.Fatalf("parseRequestAt(%q) = %v, want %v UTC", tc.raw, got, tc.want)
			}
		})
	}

	for _, raw := range []string{"", "   ", "2025-09-05T10:00:00", "2025-09-05 10:00:00", "yesterday"} {
		if _, err := parseRequestAt(raw); err == nil {
			t.Errorf("parseRequestAt(%q) should fail", raw)
		}
	}
}

func Test_readStamp(t *testing.T) {
	now := time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)
	hdr := func(id, at string) http.Header {
		h := http.Header{}
		if id != "" {
			h.Set(HeaderRequestID, id)
		}
		if at != "" {
			h.Set(HeaderRequestAt, at)
		}
		return h
	}
	reqID := strings.Repeat("b", 32)

	st, err := readStamp(hdr(" "+reqID+" ", "2025-09-05T03:05:00Z"), now)
	if err != nil {
		t.Fatalf("readStamp: %v", err)
	}
	if st.ID != reqID || !st.At.Equal(now.Add(5*time.Minute)) {
		t.Fatalf("stamp = %+v", st)
	}

	bad := []struct {
		name string
		h    http.Header
		want string
	}{
		{"missing id", hdr("", "2025-09-05T03:00:00Z"), "missing " + HeaderRequestID},
		{"bad id", hdr("NOT-VALID", "2025-09-05T03:00:00Z"), "invalid " + HeaderRequestID},
		{"missing at", hdr(reqID, ""), "missing " + HeaderRequestAt},
		{"too old", hdr(reqID, "2025-09-05T02:49:00Z"), "too skewed"},
		{"too new", hdr(reqID, "2025-09-05T03:11:00Z"), "too skewed"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readStamp(tc.h, now)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
