package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/provider"
	"github.com/Nyansa/flintrock/internal/provider/memory"
)

func TestWaitUntilStateReturnsImmediatelyWhenAlreadySettled(t *testing.T) {
	p := memory.New()
	p.PendingOnLaunch = false
	o := New(p, log.New("test"))

	ctx := context.Background()
	_, g, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 2, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)

	settled, err := o.waitUntilState(ctx, nodes, cluster.StateRunning, time.Second)
	require.NoError(t, err)
	for _, n := range settled {
		assert.Equal(t, cluster.StateRunning, n.State)
	}
}

func TestWaitUntilStatePollsUntilAdvanced(t *testing.T) {
	p := memory.New()
	p.PendingOnLaunch = false
	o := New(p, log.New("test"))

	ctx := context.Background()
	_, g, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 1, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)

	require.NoError(t, p.Stop(ctx, []string{nodes[0].ID}))

	go func() {
		time.Sleep(vmPollBackoff / 2)
		p.Advance()
	}()

	settled, err := o.waitUntilState(ctx, nodes, cluster.StateStopped, 5*vmPollBackoff)
	require.NoError(t, err)
	assert.Equal(t, cluster.StateStopped, settled[0].State)
}

func TestWaitUntilStateTimesOut(t *testing.T) {
	p := memory.New()
	p.PendingOnLaunch = true
	o := New(p, log.New("test"))

	ctx := context.Background()
	_, g, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 1, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)

	_, err = o.waitUntilState(ctx, nodes, cluster.StateRunning, vmPollBackoff/2)
	assert.Error(t, err)
}
