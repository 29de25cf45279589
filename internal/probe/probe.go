// Package probe issues health-check requests against the blue/green proxy
// and reports which pool answered.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UnknownPool is reported when a response carries no pool header.
const UnknownPool = "unknown"

// Response is the outcome of one probe. Err is set for transport and
// timeout failures; StatusCode and Pool are only meaningful when Err is nil.
type Response struct {
	StatusCode int
	Pool       string
	Err        error
	Duration   time.Duration
}

// OK reports whether the probe reached the endpoint and got a 200.
func (r Response) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// Options configure a Prober.
type Options struct {
	Endpoint   string
	PoolHeader string
	Client     *http.Client
	Logger     *zap.Logger
}

// Prober performs GET requests against a fixed endpoint.
type Prober struct {
	endpoint   string
	poolHeader string
	client     *http.Client
	log        *zap.Logger
}

// New creates a Prober.
func New(opts Options) *Prober {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.PoolHeader == "" {
		opts.PoolHeader = "X-App-Pool"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Prober{
		endpoint:   opts.Endpoint,
		poolHeader: opts.PoolHeader,
		client:     opts.Client,
		log:        opts.Logger,
	}
}

// Probe issues a single GET bounded by timeout.
func (p *Prober) Probe(ctx context.Context, timeout time.Duration) Response {
	start := time.Now()
	resp := p.probe(ctx, timeout)
	resp.Duration = time.Since(start)

	if resp.Err != nil {
		p.log.Debug("probe failed", zap.String("endpoint", p.endpoint), zap.Error(resp.Err), zap.Duration("duration", resp.Duration))
	} else {
		p.log.Debug("probe answered",
			zap.String("endpoint", p.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("pool", resp.Pool),
			zap.Duration("duration", resp.Duration),
		)
	}
	return resp
}

func (p *Prober) probe(ctx context.Context, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Response{Err: fmt.Errorf("build request: %w", err)}
	}

	httpResp, err := p.client.Do(req)
	if err != nil {
		return Response{Err: err}
	}
	defer httpResp.Body.Close()
	// Drain so the connection can be reused by the next probe.
	_, _ = io.Copy(io.Discard, httpResp.Body)

	pool := httpResp.Header.Get(p.poolHeader)
	if pool == "" {
		pool = UnknownPool
	}
	return Response{StatusCode: httpResp.StatusCode, Pool: pool}
}
