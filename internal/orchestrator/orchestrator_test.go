package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyansa/flintrock/internal/common/log"
	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider"
	"github.com/Nyansa/flintrock/internal/provider/memory"
)

func newTestOrchestrator() (*orchestrator.Orchestrator, *memory.Provider) {
	p := memory.New()
	p.PendingOnLaunch = false
	return orchestrator.New(p, log.New("test")), p
}

func launchBareCluster(t *testing.T, p *memory.Provider, name string, count int) {
	t.Helper()
	ctx := context.Background()
	_, g, err := p.EnsureSecurityGroups(ctx, name, "", "us-east-1")
	require.NoError(t, err)

	nodes, err := p.LaunchVMs(ctx, provider.LaunchSpec{Count: count, SecurityGroupIDs: []string{g.ID}})
	require.NoError(t, err)

	require.NoError(t, p.Tag(ctx, []string{nodes[0].ID}, map[string]string{"flintrock-role": "master"}))
	for _, n := range nodes[1:] {
		require.NoError(t, p.Tag(ctx, []string{n.ID}, map[string]string{"flintrock-role": "slave"}))
	}
}

func TestDescribeUnknownClusterReturnsClusterNotFound(t *testing.T) {
	o, _ := newTestOrchestrator()

	_, err := o.Describe(context.Background(), "ghost", "us-east-1")

	var notFound *flintrockerrors.ClusterNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestDescribeNamedCluster(t *testing.T) {
	o, p := newTestOrchestrator()
	launchBareCluster(t, p, "myspark", 3)

	summaries, err := o.Describe(context.Background(), "myspark", "us-east-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	assert.Equal(t, "myspark", summaries[0].Name)
	assert.Equal(t, "running", summaries[0].State)
	assert.Equal(t, 3, summaries[0].NodeCount)
}

func TestDescribeAllClustersSortedByName(t *testing.T) {
	o, p := newTestOrchestrator()
	launchBareCluster(t, p, "zeta", 1)
	launchBareCluster(t, p, "alpha", 2)

	summaries, err := o.Describe(context.Background(), "", "us-east-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "alpha", summaries[0].Name)
	assert.Equal(t, "zeta", summaries[1].Name)
}

func TestLaunchFailsFastWhenClusterAlreadyExists(t *testing.T) {
	o, p := newTestOrchestrator()
	launchBareCluster(t, p, "myspark", 1)

	err := o.Launch(context.Background(), orchestrator.LaunchOptions{
		ClusterName: "myspark",
		NumSlaves:   1,
	})

	var alreadyExists *flintrockerrors.ClusterAlreadyExists
	require.True(t, errors.As(err, &alreadyExists))
	assert.Equal(t, "myspark", alreadyExists.Name)
}

func TestStopUnknownClusterReturnsClusterNotFound(t *testing.T) {
	o, _ := newTestOrchestrator()

	err := o.Stop(context.Background(), "ghost", "us-east-1", true)

	var notFound *flintrockerrors.ClusterNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestDestroyUnknownClusterReturnsClusterNotFound(t *testing.T) {
	o, _ := newTestOrchestrator()

	err := o.Destroy(context.Background(), "ghost", "us-east-1", true)

	var notFound *flintrockerrors.ClusterNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestDestroyTerminatesEveryNode(t *testing.T) {
	o, p := newTestOrchestrator()
	launchBareCluster(t, p, "myspark", 2)

	err := o.Destroy(context.Background(), "myspark", "us-east-1", true)
	require.NoError(t, err)

	summaries, err := o.Describe(context.Background(), "myspark", "us-east-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "terminated", summaries[0].State)
}
