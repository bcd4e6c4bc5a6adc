package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synnq/sendtx/internal/client"
	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/metrics"
	"github.com/synnq/sendtx/internal/models"
	"github.com/synnq/sendtx/internal/output"
)

type fakeDispatcher struct {
	mu          sync.Mutex
	attempts    []int
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
	fail        func(attempt int) bool
	onSend      func(attempt int)
}

func (f *fakeDispatcher) Send(_ context.Context, attempt int, _ any) *models.Result {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.attempts = append(f.attempts, attempt)
	f.mu.Unlock()

	if f.onSend != nil {
		f.onSend(attempt)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	res := &models.Result{Attempt: attempt, StatusCode: http.StatusOK}
	if f.fail != nil && f.fail(attempt) {
		res.StatusCode = http.StatusInternalServerError
		res.Err = errors.New("rejected")
	}
	return res
}

type recordingHandler struct {
	mu      sync.Mutex
	results []*models.Result
	summary *models.Summary
	err     error
}

func (h *recordingHandler) WriteResult(_ context.Context, r *models.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
	return h.err
}

func (h *recordingHandler) WriteSummary(_ context.Context, s models.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = &s
	return nil
}

func (h *recordingHandler) Close() error { return nil }

func TestRunSequential(t *testing.T) {
	d := &fakeDispatcher{fail: func(attempt int) bool { return attempt == 2 }}
	h := &recordingHandler{}

	summary, err := RunSequential(context.Background(), d, nil, config.DispatchConfig{Count: 3, Interval: time.Millisecond}, h)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, d.attempts)
	assert.Len(t, h.results, 3)
	assert.Equal(t, 3, summary.Sent)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int32(1), d.maxInFlight.Load())
	assert.Greater(t, summary.Elapsed, time.Duration(0))
}

func TestRunSequentialWaitsBetweenSends(t *testing.T) {
	d := &fakeDispatcher{}
	start := time.Now()
	_, err := RunSequential(context.Background(), d, nil, config.DispatchConfig{Count: 3, Interval: 20 * time.Millisecond}, &recordingHandler{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRunSequentialUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &fakeDispatcher{onSend: func(int) { cancel() }}
	summary, err := RunSequential(ctx, d, nil, config.DispatchConfig{Count: 0, Interval: time.Hour}, &recordingHandler{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}

func TestRunSequentialHandlerError(t *testing.T) {
	h := &recordingHandler{err: errors.New("disk full")}
	summary, err := RunSequential(context.Background(), &fakeDispatcher{}, nil, config.DispatchConfig{Count: 5}, h)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, summary.Sent)
}

func TestRunBatchRespectsConcurrencyLimit(t *testing.T) {
	d := &fakeDispatcher{delay: 5 * time.Millisecond, fail: func(attempt int) bool { return attempt%5 == 0 }}
	h := &recordingHandler{}

	summary, err := RunBatch(context.Background(), d, nil, config.DispatchConfig{Count: 20, Concurrent: true, MaxConcurrency: 4}, h)
	require.NoError(t, err)

	assert.LessOrEqual(t, d.maxInFlight.Load(), int32(4))
	assert.Equal(t, 20, summary.Sent)
	assert.Equal(t, 16, summary.Succeeded)
	assert.Equal(t, 4, summary.Failed)
	assert.Len(t, h.results, 20)

	sort.Ints(d.attempts)
	for i, a := range d.attempts {
		assert.Equal(t, i+1, a)
	}
}

func TestRunBatchFiresAllAtOnce(t *testing.T) {
	const count = 8
	var arrived atomic.Int32
	var timedOut atomic.Bool

	d := &fakeDispatcher{onSend: func(int) {
		arrived.Add(1)
		deadline := time.Now().Add(2 * time.Second)
		for arrived.Load() < count {
			if time.Now().After(deadline) {
				timedOut.Store(true)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}}

	summary, err := RunBatch(context.Background(), d, nil, config.DispatchConfig{Count: count, Concurrent: true}, &recordingHandler{})
	require.NoError(t, err)
	assert.False(t, timedOut.Load())
	assert.Equal(t, int32(count), d.maxInFlight.Load())
	assert.Equal(t, count, summary.Sent)
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := RunBatch(ctx, &fakeDispatcher{}, nil, config.DispatchConfig{Count: 5, Concurrent: true, MaxConcurrency: 1}, &recordingHandler{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
}

func TestRunBatchHandlerError(t *testing.T) {
	h := &recordingHandler{err: errors.New("closed pipe")}
	summary, err := RunBatch(context.Background(), &fakeDispatcher{}, nil, config.DispatchConfig{Count: 3, Concurrent: true}, h)
	assert.ErrorContains(t, err, "closed pipe")
	assert.Equal(t, 3, summary.Sent)
}

type validator struct {
	mu          sync.Mutex
	submissions []map[string]any
	secrets     []string
	status      int
	nodesStatus int
}

func newValidator(t *testing.T) (*validator, *httptest.Server) {
	t.Helper()
	v := &validator{status: http.StatusOK, nodesStatus: http.StatusOK}
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("GET /nodes", func(w http.ResponseWriter, r *http.Request) {
		if v.nodesStatus != http.StatusOK {
			w.WriteHeader(v.nodesStatus)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.Node{
			{Address: "10.1.1.1:8080", ID: "other"},
			{Address: srv.Listener.Addr().String(), ID: "node-7"},
		})
	})
	mux.HandleFunc("POST /generate_secret", func(w http.ResponseWriter, r *http.Request) {
		var req models.SecretRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		v.mu.Lock()
		v.secrets = append(v.secrets, req.Secret)
		v.mu.Unlock()
	})
	mux.HandleFunc("POST /receive_data", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		v.mu.Lock()
		v.submissions = append(v.submissions, body)
		v.mu.Unlock()
		w.WriteHeader(v.status)
		_, _ = io.WriteString(w, `{"message":"received"}`)
	})
	return v, srv
}

func baseSendConfig(srvURL string) config.SendConfig {
	return config.SendConfig{
		BaseURL:    srvURL,
		Sender:     "alice",
		PrivateKey: "key",
		Receiver:   "bob",
		Amount:     "100",
		Denom:      "SNQ",
		Fee:        1,
		Flags:      1,
		DataType:   "storage",
		ModelType:  "default_model",
		Metadata:   []string{"meta=some_metadata_value"},
		SecretURL:  srvURL + "/generate_secret",
		NoFallback: true,
		Dispatch:   config.DispatchConfig{Count: 2},
	}
}

func testClient() *client.Client {
	return client.New(client.Config{Timeout: 5 * time.Second, RetryWait: time.Millisecond})
}

func TestRunEnvelopeWithResolvedNode(t *testing.T) {
	v, srv := newValidator(t)
	cfg := baseSendConfig(srv.URL)
	cfg.ResolveNode = true

	var buf bytes.Buffer
	summary, err := Run(context.Background(), testClient(), cfg, output.NewJSONHandler(&buf), metrics.New())
	require.NoError(t, err)

	assert.Equal(t, models.Summary{Sent: 2, Succeeded: 2, Elapsed: summary.Elapsed}, summary)
	require.Len(t, v.secrets, 1)
	require.Len(t, v.submissions, 2)
	for _, sub := range v.submissions {
		assert.Equal(t, v.secrets[0], sub["secret"])
		data, ok := sub["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "node-7", data["node_id"])
		assert.Equal(t, "payment", data["transaction_type"])
		assert.Equal(t, float64(100), data["amount"])
		assert.Equal(t, map[string]any{"meta": "some_metadata_value"}, data["metadata"])
		assert.NotContains(t, data, "private_key")
	}
	assert.Contains(t, buf.String(), `"sent":2`)
}

func TestRunFlatWhenNodeResolutionFails(t *testing.T) {
	v, srv := newValidator(t)
	v.nodesStatus = http.StatusServiceUnavailable
	cfg := baseSendConfig(srv.URL)
	cfg.ResolveNode = true
	cfg.Secret = "given"
	cfg.SendPrivateKey = true
	cfg.Dispatch = config.DispatchConfig{Count: 3, Concurrent: true}

	h := &recordingHandler{}
	summary, err := Run(context.Background(), testClient(), cfg, h, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Sent)
	require.NotNil(t, h.summary)
	assert.Empty(t, v.secrets)
	require.Len(t, v.submissions, 3)
	for _, sub := range v.submissions {
		assert.Equal(t, "given", sub["secret"])
		assert.Equal(t, "key", sub["private_key"])
		assert.NotContains(t, sub, "node_id")
		assert.Equal(t, "payment", sub["transaction_type"])
	}
}

func TestRunFallsBack(t *testing.T) {
	v, srv := newValidator(t)
	v.status = http.StatusBadRequest

	var fallbackHits atomic.Int32
	fb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer fb.Close()

	cfg := baseSendConfig(srv.URL)
	cfg.NoFallback = false
	cfg.FallbackURL = fb.URL
	cfg.Dispatch.Count = 1

	h := &recordingHandler{}
	summary, err := Run(context.Background(), testClient(), cfg, h, metrics.New())
	require.NoError(t, err)

	assert.Equal(t, int32(1), fallbackHits.Load())
	assert.Equal(t, 1, summary.FellBack)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, h.results, 1)
	assert.Equal(t, fb.URL, h.results[0].Endpoint)
}

func TestRunSecretGenerationFailure(t *testing.T) {
	_, srv := newValidator(t)
	cfg := baseSendConfig(srv.URL)
	cfg.GenerateSecret = true
	cfg.SecretURL = srv.URL + "/missing"

	_, err := Run(context.Background(), testClient(), cfg, &recordingHandler{}, nil)
	assert.ErrorContains(t, err, "failed to generate secret")
}

func TestPrepareRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.SendConfig)
		wantErr string
	}{
		{name: "amount", mutate: func(c *config.SendConfig) { c.Amount = "-4" }, wantErr: "invalid amount"},
		{name: "amount too large", mutate: func(c *config.SendConfig) { c.Amount = "18446744073709551615" }, wantErr: "too large"},
		{name: "denom", mutate: func(c *config.SendConfig) { c.Denom = "" }, wantErr: "denomination"},
		{name: "data", mutate: func(c *config.SendConfig) { c.Data = []string{"bad"} }, wantErr: "invalid data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseSendConfig("http://127.0.0.1:1")
			tc.mutate(&cfg)
			_, err := Prepare(context.Background(), testClient(), cfg)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
