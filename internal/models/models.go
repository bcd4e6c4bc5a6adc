package models

import "time"

// TransactionTypePayment is the only transaction type this tool submits.
const TransactionTypePayment = "payment"

// Transaction is the body accepted by the validator submission endpoints.
// Secret and NodeID are only inlined when the transaction is sent flat.
type Transaction struct {
	TransactionType string         `json:"transaction_type"`
	Sender          string         `json:"sender"`
	PrivateKey      string         `json:"private_key,omitempty"`
	Receiver        string         `json:"receiver"`
	Amount          uint64         `json:"amount"`
	Denom           string         `json:"denom"`
	Fee             uint64         `json:"fee"`
	Flags           int            `json:"flags"`
	DataType        string         `json:"data_type"`
	Data            map[string]any `json:"data"`
	Metadata        map[string]any `json:"metadata"`
	ModelType       string         `json:"model_type"`
	Secret          string         `json:"secret,omitempty"`
	NodeID          string         `json:"node_id,omitempty"`
}

// Envelope wraps a transaction together with the ZKP secret.
type Envelope struct {
	Secret string       `json:"secret"`
	Data   *Transaction `json:"data"`
}

// Node is one entry of the validator directory listing.
type Node struct {
	Address string `json:"address"`
	ID      string `json:"id"`
}

// SecretRequest registers a freshly generated secret.
type SecretRequest struct {
	Secret string `json:"secret"`
}

// Result is the outcome of a single submission, including a fallback hop.
type Result struct {
	Attempt    int
	Endpoint   string
	StatusCode int
	Body       string
	FellBack   bool
	Duration   time.Duration
	Err        error
}

// OK reports whether the transaction was accepted by either endpoint.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Summary aggregates the results of one run.
type Summary struct {
	Sent      int
	Succeeded int
	FellBack  int
	Failed    int
	Elapsed   time.Duration
}

// Add folds r into the summary.
func (s *Summary) Add(r *Result) {
	s.Sent++
	if r.FellBack {
		s.FellBack++
	}
	if r.OK() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}
