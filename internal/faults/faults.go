// Package faults implements the deliberate failure simulation used to
// exercise client retry and timeout logic: request-scoped delays and
// synthetic HTTP error statuses.
package faults

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mock-auth-server/internal/observability"
	"mock-auth-server/internal/respond"
)

// MaxDelay caps simulated latency so a misbehaving test cannot park a
// request forever.
const MaxDelay = 60 * time.Second

// Injection is the per-request fault request parsed from the query
// string: ?delay=<seconds>&status=<code>.
type Injection struct {
	Delay  time.Duration
	Status int
}

func FromQuery(r *http.Request) Injection {
	var inj Injection

	if raw := r.URL.Query().Get("delay"); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
			inj.Delay = time.Duration(seconds * float64(time.Second))
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if status, err := strconv.Atoi(raw); err == nil {
			inj.Status = status
		}
	}

	return inj
}

// Apply sleeps the capped delay, then, if an error status was requested,
// writes the simulated failure and reports true. The caller must not run
// its real handler logic after a true return. No lock is held while
// sleeping; the delay only occupies this request's goroutine.
func (inj Injection) Apply(w http.ResponseWriter, logger *observability.Logger) bool {
	if inj.Delay > 0 {
		delay := min(inj.Delay, MaxDelay)
		logger.Warn("simulated_delay", map[string]any{"seconds": delay.Seconds()})
		time.Sleep(delay)
	}

	if inj.Status >= 400 {
		respond.JSON(w, inj.Status, respond.Fail(
			fmt.Sprintf("SIMULATED_%d", inj.Status),
			fmt.Sprintf("Simulated HTTP %d error", inj.Status)))
		return true
	}

	return false
}

// TimeoutHandler is the unauthenticated pure-delay probe:
// GET /timeout?second=N.
func TimeoutHandler(logger *observability.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seconds, _ := strconv.ParseFloat(r.URL.Query().Get("second"), 64)
		if seconds > 0 {
			delay := min(time.Duration(seconds*float64(time.Second)), MaxDelay)
			logger.Warn("timeout_probe", map[string]any{"seconds": delay.Seconds()})
			time.Sleep(delay)
		}

		respond.Business(w, respond.OK("TIMEOUT_OK", fmt.Sprintf("Responded after %gs delay", seconds)))
	}
}
