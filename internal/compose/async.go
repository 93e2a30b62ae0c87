package compose

import (
	"context"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// Result carries the outcome of an asynchronous query.
type Result struct {
	Response *schema.Response
	Err      error
}

// QueryAsync runs the identical resolution in a background goroutine and
// delivers the outcome on the returned channel. The channel is buffered, so
// an abandoned result never leaks the goroutine. Cancellation flows through
// the context into delegated retrieve and synthesize calls.
func (e *Engine) QueryAsync(ctx context.Context, query string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		resp, err := e.Query(ctx, query)
		ch <- Result{Response: resp, Err: err}
		close(ch)
	}()
	return ch
}
