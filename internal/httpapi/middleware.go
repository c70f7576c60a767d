package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"b2g-quiz/internal/logger"
)

const defaultMaxLogBytes = 512

type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Write forwards the full payload and keeps at most maxLogBytes of it for the
// request log.
func (r *statusRecorder) Write(payload []byte) (int, error) {
	written, err := r.ResponseWriter.Write(payload)
	r.bytesWritten += written

	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		chunk := payload[:written]
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
			r.truncated = true
		}
		r.logBody.Write(chunk)
	} else if written > 0 {
		r.truncated = true
	}
	return written, err
}

func withRequestLogging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    defaultMaxLogBytes,
		}

		next.ServeHTTP(recorder, r)

		fields := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode,
			"bytes", recorder.bytesWritten,
			"duration", time.Since(started),
		}
		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			log.Error("request failed", append(fields, "body", recorder.logBody.String())...)
		case recorder.statusCode >= http.StatusBadRequest:
			log.Warn("request rejected", append(fields, "body", recorder.logBody.String())...)
		default:
			log.Info("request served", fields...)
			log.Debug("response body", "path", r.URL.Path, "body", recorder.logBody.String(), "truncated", recorder.truncated)
		}
	})
}
