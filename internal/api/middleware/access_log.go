package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// accessLine is one JSON log record per request. Streamed chat answers are
// flagged since their duration covers the whole generation.
type accessLine struct {
	Time       string `json:"ts"`
	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Query      string `json:"query,omitempty"`
	Status     int    `json:"status"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
	Stream     bool   `json:"stream,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// AccessLog writes an accessLine through the standard logger after each request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		line, err := json.Marshal(accessLine{
			Time:       started.UTC().Format(time.RFC3339Nano),
			RequestID:  GetRequestID(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      r.URL.RawQuery,
			Status:     rec.Status(),
			Bytes:      rec.written,
			DurationMS: time.Since(started).Milliseconds(),
			Stream:     rec.streaming(),
			RemoteAddr: remoteAddr(r),
			UserAgent:  r.UserAgent(),
		})
		if err != nil {
			log.Printf("access log: %v", err)
			return
		}
		log.Print(string(line))
	})
}

// remoteAddr prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
