// Package telemetry provides query observability for the graph coordinator.
// All telemetry data is kept locally - no external reporting.
package telemetry

import (
	"time"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// Hook receives notifications around query resolution. Implementations must
// not influence control flow: the coordinator ignores anything a hook does.
type Hook interface {
	// OnQueryStart is called when resolution of a query begins at an index.
	// Level 0 is the root; placeholder expansion increments the level.
	OnQueryStart(indexID string, query string, level int)

	// OnQueryEnd is called when resolution at an index produced a response.
	OnQueryEnd(indexID string, query string, level int, resp *schema.Response, elapsed time.Duration)

	// OnRetrieveStart is called before the selected engine retrieves.
	OnRetrieveStart(indexID string, query string)

	// OnRetrieveEnd is called with the ordered retrieved fragments.
	OnRetrieveEnd(indexID string, query string, fragments []schema.ScoredFragment)
}

// NopHook is a Hook that does nothing. Useful as a default.
type NopHook struct{}

func (NopHook) OnQueryStart(string, string, int) {}
func (NopHook) OnQueryEnd(string, string, int, *schema.Response, time.Duration) {}
func (NopHook) OnRetrieveStart(string, string) {}
func (NopHook) OnRetrieveEnd(string, string, []schema.ScoredFragment) {}

var _ Hook = NopHook{}
