package output

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/synnq/sendtx/internal/models"
)

// TextHandler prints results for humans.
type TextHandler struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: w}
}

func (h *TextHandler) WriteResult(_ context.Context, r *models.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	via := ""
	if r.FellBack {
		via = " (fallback)"
	}
	if r.StatusCode == 0 {
		_, err := fmt.Fprintf(h.w, "#%d%s An error occurred: %v\n", r.Attempt, via, r.Err)
		return err
	}
	_, err := fmt.Fprintf(h.w, "#%d%s Status Code: %d\nResponse Body: %s\n", r.Attempt, via, r.StatusCode, r.Body)
	return err
}

func (h *TextHandler) WriteSummary(_ context.Context, s models.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintf(h.w, "Sent %d transaction(s) in %s: %d succeeded, %d via fallback, %d failed\n",
		s.Sent, s.Elapsed.Round(time.Millisecond), s.Succeeded, s.FellBack, s.Failed)
	return err
}

func (h *TextHandler) Close() error {
	return nil
}
