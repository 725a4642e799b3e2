package livelox

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter paces requests separately for every host. A non-positive
// rate disables pacing.
type hostLimiter struct {
	mu    sync.Mutex
	limit rate.Limit
	hosts map[string]*rate.Limiter
}

func newHostLimiter(requestsPerSecond float64) *hostLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &hostLimiter{
		limit: limit,
		hosts: make(map[string]*rate.Limiter),
	}
}

// wait blocks until a request to host may be sent or ctx is done.
func (l *hostLimiter) wait(ctx context.Context, host string) error {
	return l.forHost(host).Wait(ctx)
}

func (l *hostLimiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, 1)
		l.hosts[host] = lim
	}
	return lim
}

// pacedDoer sends requests through client once the limiter lets them pass.
type pacedDoer struct {
	client  *http.Client
	limiter *hostLimiter
}

func (p *pacedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := p.limiter.wait(req.Context(), req.URL.Host); err != nil {
		return nil, err
	}
	return p.client.Do(req)
}
