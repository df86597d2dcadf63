// Package cluster holds the data types shared by every flintrock
// component: the immutable per-launch ClusterInfo record and the
// provider-facing NodeHandle/SecurityGroup shapes.
package cluster

import "fmt"

// NodeState is the lifecycle state of a provider-managed VM.
type NodeState string

const (
	StatePending    NodeState = "pending"
	StateRunning    NodeState = "running"
	StateStopping   NodeState = "stopping"
	StateStopped    NodeState = "stopped"
	StateTerminated NodeState = "terminated"
)

// Role identifies a node's function within a cluster.
type Role string

const (
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

// RoleTagKey is the tag key the provider uses to encode Role.
const RoleTagKey = "flintrock-role"

// NameTagKey is the tag key holding the human-friendly instance name.
const NameTagKey = "Name"

// BaseSecurityGroupName is the security group shared across every
// flintrock-managed cluster in a region, carrying client-ingress rules.
const BaseSecurityGroupName = "flintrock"

// ClusterSecurityGroupName returns the per-cluster security group name
// whose membership is the sole record of cluster existence.
func ClusterSecurityGroupName(clusterName string) string {
	return "flintrock-" + clusterName
}

// NodeHandle is the provider's view of a single VM: an opaque ID plus the
// attributes the orchestrator reads to drive the lifecycle state
// machines. It is mutated only by the Provider.
type NodeHandle struct {
	ID             string
	State          NodeState
	PublicHostname string
	Address        string
	Tags           map[string]string
}

// Role reads the flintrock-role tag, defaulting to RoleSlave if absent
// (callers should only do this for nodes already known to belong to a
// cluster).
func (n NodeHandle) Role() Role {
	if n.Tags[RoleTagKey] == string(RoleMaster) {
		return RoleMaster
	}
	return RoleSlave
}

// SecurityGroupRule describes one ingress rule.
type SecurityGroupRule struct {
	Protocol    string // "tcp", "udp", or "icmp"
	FromPort    int
	ToPort      int
	CIDR        string // mutually exclusive with SourceGroupID
	SourceGroupID string
}

// SecurityGroup is a named rule bundle in a provider region/VPC.
type SecurityGroup struct {
	ID      string
	Name    string
	VPCID   string
	Rules   []SecurityGroupRule
}

// ClusterInfo is the immutable record built once all of a launch's VMs
// reach the running state. It is read, never mutated, by every per-node
// fan-out task and by every Module operation.
type ClusterInfo struct {
	Name            string
	SSHKeyPair      KeyPairText
	MasterHost      string
	SlaveHosts      []string
	SparkScratchDir string
	SparkMasterOpts string
}

// KeyPairText is the in-memory (public, private) text representation of
// an ephemeral SSH key pair. Both fields are empty when the key pair was
// not re-established (see Orchestrator.Start, which intentionally leaves
// this zero-valued to match the source's behavior).
type KeyPairText struct {
	PublicText  string
	PrivateText string
}

// Validate checks the ClusterInfo invariants: the master is never also a
// slave, and the slave count matches what was requested.
func (c ClusterInfo) Validate(numSlaves int) error {
	for _, h := range c.SlaveHosts {
		if h == c.MasterHost {
			return fmt.Errorf("invariant violated: master_host %q present in slave_hosts", h)
		}
	}
	if len(c.SlaveHosts) != numSlaves {
		return fmt.Errorf("invariant violated: want %d slave hosts, got %d", numSlaves, len(c.SlaveHosts))
	}
	return nil
}

// AggregateState reduces a set of node states to a single descriptive
// state: the common state if all nodes agree, or "inconsistent"
// otherwise. Matches original_source's get_cluster_state_ec2.
func AggregateState(nodes []NodeHandle) string {
	if len(nodes) == 0 {
		return ""
	}
	first := nodes[0].State
	for _, n := range nodes[1:] {
		if n.State != first {
			return "inconsistent"
		}
	}
	return string(first)
}

// SplitMasterSlaves partitions nodes by their flintrock-role tag. It
// assumes exactly one master is present, the invariant enforced at launch
// time. If no node is tagged master, master is nil; if several are, the
// last one is returned and none of them appears in slaves.
func SplitMasterSlaves(nodes []NodeHandle) (master *NodeHandle, slaves []NodeHandle) {
	for i := range nodes {
		if nodes[i].Role() == RoleMaster {
			n := nodes[i]
			master = &n
			continue
		}
		slaves = append(slaves, nodes[i])
	}
	return master, slaves
}
