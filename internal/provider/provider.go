// Package provider defines C4, the narrow cloud-agnostic surface the
// orchestrator drives. The only concrete implementations are an EC2
// backend (package ec2provider) and an in-memory fake (package memory)
// used by the orchestrator's own test suite, satisfying the "cloud
// provider seam" called for by the design.
package provider

import (
	"context"

	"github.com/Nyansa/flintrock/internal/cluster"
)

// NodeHandle and SecurityGroupHandle are the provider-facing views of the
// shared cluster types.
type NodeHandle = cluster.NodeHandle
type SecurityGroupHandle = cluster.SecurityGroup

// LaunchSpec describes one launch_vms request: exactly Count VMs in a
// single provider call.
type LaunchSpec struct {
	Count                        int
	Image                        string
	InstanceType                 string
	AvailabilityZone             string
	SecurityGroupIDs             []string
	SubnetID                     string
	PlacementGroup               string
	Tenancy                      string
	EBSOptimized                 bool
	InstanceInitiatedShutdownBehavior string // "stop" or "terminate"
	KeyName                      string
	SpotPrice                    string // empty means on-demand
}

// Provider is the Compute Provider contract (C4). Every operation that
// talks to the network takes a context so callers can bound it.
type Provider interface {
	// EnsureSecurityGroups is idempotent: it creates the base and cluster
	// groups if missing and authorizes their rule sets, swallowing
	// duplicate-rule errors.
	EnsureSecurityGroups(ctx context.Context, clusterName, vpcID, region string) (base, clusterGroup SecurityGroupHandle, err error)

	LaunchVMs(ctx context.Context, spec LaunchSpec) ([]NodeHandle, error)

	Tag(ctx context.Context, nodeIDs []string, tags map[string]string) error

	ListCluster(ctx context.Context, clusterName, region string) ([]NodeHandle, error)

	ListAllClusters(ctx context.Context, region string) (map[string][]NodeHandle, error)

	Start(ctx context.Context, nodeIDs []string) error
	Stop(ctx context.Context, nodeIDs []string) error
	Terminate(ctx context.Context, nodeIDs []string) error

	Refresh(ctx context.Context, node NodeHandle) (NodeHandle, error)
}

// ClientIngressRules returns the rule set authorized on the base security
// group: SSH plus the Spark master/worker UI ports, scoped to the
// caller's own public IPv4. Both the ec2 and memory providers build from
// this single source of truth, matching the testable property that
// EnsureSecurityGroups produces an identical, idempotent rule shape
// regardless of backend.
func ClientIngressRules(callerCIDR string) []cluster.SecurityGroupRule {
	return []cluster.SecurityGroupRule{
		{Protocol: "tcp", FromPort: 22, ToPort: 22, CIDR: callerCIDR},
		{Protocol: "tcp", FromPort: 8080, ToPort: 8081, CIDR: callerCIDR},
		{Protocol: "tcp", FromPort: 4040, ToPort: 4040, CIDR: callerCIDR},
	}
}

// IntraClusterRules returns the self-referential rule set authorized on
// the cluster security group, letting every node in the cluster talk to
// every other node on any port.
func IntraClusterRules(clusterGroupID string) []cluster.SecurityGroupRule {
	return []cluster.SecurityGroupRule{
		{Protocol: "icmp", FromPort: -1, ToPort: -1, SourceGroupID: clusterGroupID},
		{Protocol: "tcp", FromPort: 0, ToPort: 65535, SourceGroupID: clusterGroupID},
		{Protocol: "udp", FromPort: 0, ToPort: 65535, SourceGroupID: clusterGroupID},
	}
}

// DiscoverPublicIP resolves the caller's public IPv4 via an external echo
// service, matching original_source's use of checkip.amazonaws.com.
func DiscoverPublicIP(ctx context.Context) (string, error) {
	return discoverPublicIP(ctx)
}
