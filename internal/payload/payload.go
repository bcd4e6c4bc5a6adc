// Package payload assembles the JSON bodies submitted to the validator.
package payload

import (
	"errors"
	"maps"
	"strings"

	"github.com/synnq/sendtx/internal/models"
)

const redacted = "[REDACTED]"

var (
	ErrNegativeAmount = errors.New("amount must be a non-negative integer")
	ErrEmptyDenom     = errors.New("denomination must not be empty")
	ErrMissingSecret  = errors.New("a secret is required to wrap the transaction")
)

// Fields are the user supplied parts of a payment.
type Fields struct {
	Sender     string
	PrivateKey string
	Receiver   string
	Amount     int64
	Denom      string
	Fee        uint64
	Flags      int
	DataType   string
	Data       map[string]any
	Metadata   map[string]any
	ModelType  string
}

// Options control how the fields are wrapped.
type Options struct {
	Secret string
	NodeID string
	// NodeResolved selects the {"secret","data"} envelope. Without it the
	// transaction is sent flat with secret and node_id inlined.
	NodeResolved bool
	// IncludePrivateKey copies the private key into the body.
	IncludePrivateKey bool
}

// Build validates the fields and returns the request body, either a
// *models.Envelope or a *models.Transaction.
func Build(f Fields, opts Options) (any, error) {
	if f.Amount < 0 {
		return nil, ErrNegativeAmount
	}
	denom := strings.TrimSpace(f.Denom)
	if denom == "" {
		return nil, ErrEmptyDenom
	}

	tx := &models.Transaction{
		TransactionType: models.TransactionTypePayment,
		Sender:          strings.TrimSpace(f.Sender),
		Receiver:        strings.TrimSpace(f.Receiver),
		Amount:          uint64(f.Amount),
		Denom:           denom,
		Fee:             f.Fee,
		Flags:           f.Flags,
		DataType:        f.DataType,
		Data:            cloneOrEmpty(f.Data),
		Metadata:        cloneOrEmpty(f.Metadata),
		ModelType:       f.ModelType,
		NodeID:          opts.NodeID,
	}
	if opts.IncludePrivateKey {
		tx.PrivateKey = f.PrivateKey
	}

	if opts.NodeResolved {
		if opts.Secret == "" {
			return nil, ErrMissingSecret
		}
		return &models.Envelope{Secret: opts.Secret, Data: tx}, nil
	}

	tx.Secret = opts.Secret
	return tx, nil
}

// Redact returns a copy of body that is safe to print.
func Redact(body any) any {
	switch b := body.(type) {
	case *models.Transaction:
		return redactTx(b)
	case *models.Envelope:
		return &models.Envelope{Secret: b.Secret, Data: redactTx(b.Data)}
	default:
		return body
	}
}

func redactTx(tx *models.Transaction) *models.Transaction {
	if tx == nil {
		return nil
	}
	cp := *tx
	if cp.PrivateKey != "" {
		cp.PrivateKey = redacted
	}
	return &cp
}

func cloneOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
