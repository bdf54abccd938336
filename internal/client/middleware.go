package client

import (
	"context"
	"log/slog"
	"time"
)

// maxBodyLogLen is the maximum length of a logged error body before truncation.
const maxBodyLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 2 * time.Second

// loggingTransport logs every request with timing.
type loggingTransport struct {
	next   Transport
	logger *slog.Logger
}

// WithLogging wraps a transport so all requests are logged.
// Slow requests are logged at WARN level, failures at ERROR.
func WithLogging(next Transport, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Do(ctx, req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"url", req.URL,
		"duration_ms", duration.Milliseconds(),
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Error("request failed", attrs...)
	case resp.Status < 200 || resp.Status >= 300:
		attrs = append(attrs, "status", resp.Status, "body", truncate(string(resp.Body), maxBodyLogLen))
		t.logger.Error("request rejected", attrs...)
	case duration > slowRequestThreshold:
		attrs = append(attrs, "status", resp.Status)
		t.logger.Warn("slow request", attrs...)
	default:
		attrs = append(attrs, "status", resp.Status)
		t.logger.Debug("request completed", attrs...)
	}

	return resp, err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
