package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "sendtx"

// retryStatusCodes are the server errors retried by the HTTP layer.
var retryStatusCodes = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Config holds the transport settings shared by every call.
type Config struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// Client talks JSON over HTTP to the validator, its node directory and the
// secret generation endpoint.
type Client struct {
	http *resty.Client
}

// StatusError is returned when the remote answered with an unexpected status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// New creates a client configured from cfg.
func New(cfg Config) *Client {
	r := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(&slogLogger{}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil || resp == nil {
				return false
			}
			_, ok := retryStatusCodes[resp.StatusCode()]
			if ok {
				slog.Debug("Retrying request", "url", resp.Request.URL, "status", resp.StatusCode())
			}
			return ok
		})
	if cfg.RetryWait > 0 {
		r.SetRetryWaitTime(cfg.RetryWait)
		if cfg.RetryWait > r.RetryMaxWaitTime {
			r.SetRetryMaxWaitTime(cfg.RetryWait)
		}
	}

	return &Client{http: r}
}

// slogLogger routes resty's internal messages to slog.
type slogLogger struct{}

func (l *slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l *slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
