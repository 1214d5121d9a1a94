package futbin

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// pacer holds a request back until `delay` has passed since the previous
// request finished, whether it succeeded or not.
type pacer struct {
	delay    time.Duration
	mutex    sync.Mutex
	lastDone time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	p.mutex.Lock()
	lastDone := p.lastDone
	p.mutex.Unlock()

	if lastDone.IsZero() {
		return nil
	}
	remaining := p.delay - time.Since(lastDone)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pacer) done() {
	p.mutex.Lock()
	p.lastDone = time.Now()
	p.mutex.Unlock()
}

func (p *pacer) instrument(client *resty.Client) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return p.wait(req.Context())
	})
	client.OnAfterResponse(func(_ *resty.Client, _ *resty.Response) error {
		p.done()
		return nil
	})
	client.OnError(func(_ *resty.Request, _ error) {
		p.done()
	})
}
