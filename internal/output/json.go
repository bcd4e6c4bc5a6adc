package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/synnq/sendtx/internal/models"
)

type resultLine struct {
	Attempt    int     `json:"attempt"`
	Endpoint   string  `json:"endpoint"`
	StatusCode int     `json:"status_code,omitempty"`
	Body       string  `json:"body,omitempty"`
	FellBack   bool    `json:"fell_back"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

type summaryLine struct {
	Sent      int     `json:"sent"`
	Succeeded int     `json:"succeeded"`
	FellBack  int     `json:"fell_back"`
	Failed    int     `json:"failed"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// JSONHandler writes one JSON object per line.
type JSONHandler struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONHandler(w io.Writer) *JSONHandler {
	return &JSONHandler{enc: json.NewEncoder(w)}
}

func (h *JSONHandler) WriteResult(_ context.Context, r *models.Result) error {
	line := resultLine{
		Attempt:    r.Attempt,
		Endpoint:   r.Endpoint,
		StatusCode: r.StatusCode,
		Body:       r.Body,
		FellBack:   r.FellBack,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	if r.Err != nil {
		line.Error = r.Err.Error()
	}
	return h.encode(line)
}

func (h *JSONHandler) WriteSummary(_ context.Context, s models.Summary) error {
	return h.encode(summaryLine{
		Sent:      s.Sent,
		Succeeded: s.Succeeded,
		FellBack:  s.FellBack,
		Failed:    s.Failed,
		ElapsedMS: float64(s.Elapsed.Microseconds()) / 1000,
	})
}

func (h *JSONHandler) encode(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enc.Encode(v)
}

func (h *JSONHandler) Close() error {
	return nil
}
