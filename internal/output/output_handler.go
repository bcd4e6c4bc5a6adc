package output

import (
	"context"
	"fmt"
	"io"

	"github.com/synnq/sendtx/internal/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type ResultHandler interface {
	// WriteResult reports the outcome of one submission.
	WriteResult(ctx context.Context, result *models.Result) error

	// WriteSummary reports the aggregate of a run.
	WriteSummary(ctx context.Context, summary models.Summary) error

	// Close flushes the handler.
	Close() error
}

// New returns the handler for format writing to w.
func New(format string, w io.Writer) (ResultHandler, error) {
	switch format {
	case FormatText, "":
		return NewTextHandler(w), nil
	case FormatJSON:
		return NewJSONHandler(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
