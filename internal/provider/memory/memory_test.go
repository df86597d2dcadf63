package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/provider"
	"github.com/Nyansa/flintrock/internal/provider/memory"
)

func TestEnsureSecurityGroupsIsIdempotent(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	base1, cluster1, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	base2, cluster2, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	assert.Equal(t, base1.ID, base2.ID)
	assert.Equal(t, cluster1.ID, cluster2.ID)
	assert.Len(t, base2.Rules, len(base1.Rules), "re-running EnsureSecurityGroups must not add duplicate rules")
	assert.Len(t, cluster2.Rules, len(cluster1.Rules))
}

func TestEnsureSecurityGroupsRuleShape(t *testing.T) {
	p := memory.New()
	p.CallerCIDR = "198.51.100.7/32"
	ctx := context.Background()

	base, clusterGroup, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	assert.Equal(t, provider.ClientIngressRules("198.51.100.7/32"), base.Rules)
	assert.Equal(t, provider.IntraClusterRules(clusterGroup.ID), clusterGroup.Rules)
}

func TestLaunchVMsStartsPendingByDefault(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	_, clusterGroup, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 3, SecurityGroupIDs: []string{clusterGroup.ID}})
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	for _, n := range nodes {
		assert.Equal(t, cluster.StatePending, n.State)
	}

	for _, n := range nodes {
		refreshed, err := p.Refresh(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, cluster.StatePending, refreshed.State)
	}
}

func TestListClusterReflectsGroupMembership(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	_, clusterGroup, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	launched, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 2, SecurityGroupIDs: []string{clusterGroup.ID}})
	require.NoError(t, err)

	listed, err := p.ListCluster(ctx, "myspark", "us-east-1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	other, err := p.ListCluster(ctx, "not-a-cluster", "us-east-1")
	require.NoError(t, err)
	assert.Empty(t, other)

	ids := map[string]bool{}
	for _, n := range listed {
		ids[n.ID] = true
	}
	for _, n := range launched {
		assert.True(t, ids[n.ID])
	}
}

func TestListAllClustersGroupsByName(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	_, g1, err := p.EnsureSecurityGroups(ctx, "alpha", "", "us-east-1")
	require.NoError(t, err)
	_, g2, err := p.EnsureSecurityGroups(ctx, "beta", "", "us-east-1")
	require.NoError(t, err)

	_, err = p.LaunchVMs(ctx, provider.LaunchSpec{Count: 1, SecurityGroupIDs: []string{g1.ID}})
	require.NoError(t, err)
	_, err = p.LaunchVMs(ctx, provider.LaunchSpec{Count: 2, SecurityGroupIDs: []string{g2.ID}})
	require.NoError(t, err)

	all, err := p.ListAllClusters(ctx, "us-east-1")
	require.NoError(t, err)

	assert.Len(t, all["alpha"], 1)
	assert.Len(t, all["beta"], 2)
}

func TestStopThenStartRoundTrip(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	_, g, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 1, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)
	p.Advance()

	require.NoError(t, p.Stop(ctx, []string{nodes[0].ID}))
	stopping, err := p.Refresh(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, cluster.StateStopping, stopping.State)

	p.Advance()
	stopped, err := p.Refresh(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, cluster.StateStopped, stopped.State)

	require.NoError(t, p.Start(ctx, []string{nodes[0].ID}))
	p.Advance()
	running, err := p.Refresh(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, cluster.StateRunning, running.State)
}

func TestTerminateIsFinal(t *testing.T) {
	p := memory.New()
	ctx := context.Background()

	_, g, err := p.EnsureSecurityGroups(ctx, "myspark", "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: 1, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)

	require.NoError(t, p.Terminate(ctx, []string{nodes[0].ID}))
	terminated, err := p.Refresh(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, cluster.StateTerminated, terminated.State)
}
