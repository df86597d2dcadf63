package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nyansa/flintrock/internal/cluster"
)

func TestClusterInfoValidate(t *testing.T) {
	info := cluster.ClusterInfo{
		MasterHost: "master.example.com",
		SlaveHosts: []string{"slave-0.example.com", "slave-1.example.com"},
	}
	assert.NoError(t, info.Validate(2))
}

func TestClusterInfoValidateWrongSlaveCount(t *testing.T) {
	info := cluster.ClusterInfo{
		MasterHost: "master.example.com",
		SlaveHosts: []string{"slave-0.example.com"},
	}
	assert.Error(t, info.Validate(2))
}

func TestClusterInfoValidateMasterAmongSlaves(t *testing.T) {
	info := cluster.ClusterInfo{
		MasterHost: "master.example.com",
		SlaveHosts: []string{"master.example.com"},
	}
	assert.Error(t, info.Validate(1))
}

func TestClusterInfoValidateZeroSlaves(t *testing.T) {
	info := cluster.ClusterInfo{MasterHost: "master.example.com"}
	assert.NoError(t, info.Validate(0))
}

func TestAggregateStateAllRunning(t *testing.T) {
	nodes := []cluster.NodeHandle{
		{State: cluster.StateRunning},
		{State: cluster.StateRunning},
	}
	assert.Equal(t, "running", cluster.AggregateState(nodes))
}

func TestAggregateStateInconsistent(t *testing.T) {
	nodes := []cluster.NodeHandle{
		{State: cluster.StateRunning},
		{State: cluster.StateStopped},
	}
	assert.Equal(t, "inconsistent", cluster.AggregateState(nodes))
}

func TestAggregateStateEmpty(t *testing.T) {
	assert.Equal(t, "", cluster.AggregateState(nil))
}

func TestSplitMasterSlaves(t *testing.T) {
	nodes := []cluster.NodeHandle{
		{ID: "i-1", Tags: map[string]string{cluster.RoleTagKey: string(cluster.RoleSlave)}},
		{ID: "i-2", Tags: map[string]string{cluster.RoleTagKey: string(cluster.RoleMaster)}},
		{ID: "i-3", Tags: map[string]string{cluster.RoleTagKey: string(cluster.RoleSlave)}},
	}

	master, slaves := cluster.SplitMasterSlaves(nodes)

	if assert.NotNil(t, master) {
		assert.Equal(t, "i-2", master.ID)
	}
	assert.Len(t, slaves, 2)
}

func TestSplitMasterSlavesNoMaster(t *testing.T) {
	nodes := []cluster.NodeHandle{
		{ID: "i-1", Tags: map[string]string{cluster.RoleTagKey: string(cluster.RoleSlave)}},
	}
	master, slaves := cluster.SplitMasterSlaves(nodes)
	assert.Nil(t, master)
	assert.Len(t, slaves, 1)
}

func TestClusterSecurityGroupName(t *testing.T) {
	assert.Equal(t, "flintrock-myspark", cluster.ClusterSecurityGroupName("myspark"))
}
