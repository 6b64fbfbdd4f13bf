package fetch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/buildscout/internal/config"
)

// Prober checks image URL reachability. Requests are rate limited so scoring
// a large candidate set does not hammer a single host.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewProber builds a prober from fetch configuration.
func NewProber(cfg config.FetchConfig) *Prober {
	rps := cfg.ProbeRPS
	if rps <= 0 {
		rps = 1
	}
	return &Prober{
		client: &http.Client{
			Timeout: time.Duration(cfg.ProbeTimeoutSecs) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Status fetches the URL and returns the HTTP status code. A 401 is retried
// once with the discovering page as Referer, since CDN-fronted game wikis
// commonly gate hotlinking that way. Transport failures return 0.
func (p *Prober) Status(ctx context.Context, url, referer string) int {
	status := p.request(ctx, url, "")
	if status == http.StatusUnauthorized && referer != "" {
		zap.L().Debug("fetch: probe retrying with referer",
			zap.String("url", url),
			zap.String("referer", referer),
		)
		status = p.request(ctx, url, referer)
	}
	return status
}

func (p *Prober) request(ctx context.Context, url, referer string) int {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Debug("fetch: probe failed", zap.String("url", url), zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	return resp.StatusCode
}
