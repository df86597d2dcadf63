package orchestrator

import (
	"context"
	"time"

	"github.com/Nyansa/flintrock/internal/cluster"
	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
	"github.com/Nyansa/flintrock/internal/provider"
)

// postLaunchWait matches the EC2 metadata eventual-consistency tax
// original_source sleeps through after RunInstances, before the first
// state poll.
const postLaunchWait = 10 * time.Second

// vmPollBackoff is the refresh granularity of waitUntilState.
const vmPollBackoff = 3 * time.Second

// masterBringUpWait is the fixed pause after ConfigureMaster so Spark's
// workers have time to register with the master before HealthCheck runs.
const masterBringUpWait = 30 * time.Second

// DefaultLaunchTimeout bounds the VM-state poll and per-node provisioning
// fan-out when the caller leaves LaunchOptions.LaunchTimeout unset.
const DefaultLaunchTimeout = 10 * time.Minute

// waitUntilState polls nodes serially until every one reports target,
// re-scanning from the start of the slice after each refresh so that a
// node settling late doesn't block the scan of nodes that already
// settled. Bounded by timeout.
func (o *Orchestrator) waitUntilState(ctx context.Context, nodes []provider.NodeHandle, target cluster.NodeState, timeout time.Duration) ([]provider.NodeHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	current := make([]provider.NodeHandle, len(nodes))
	copy(current, nodes)

	for {
		allSettled := true
		for i, n := range current {
			if n.State == target {
				continue
			}
			allSettled = false

			select {
			case <-ctx.Done():
				return nil, &flintrockerrors.TimeoutError{Op: "nodes reaching " + string(target), Elapsed: timeout.String()}
			case <-time.After(vmPollBackoff):
			}

			refreshed, err := o.Provider.Refresh(ctx, n)
			if err != nil {
				return nil, err
			}
			current[i] = refreshed
			break
		}
		if allSettled {
			return current, nil
		}
	}
}
