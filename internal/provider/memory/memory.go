// Package memory implements provider.Provider entirely in-process, with
// no network calls, so the orchestrator and its state-machine tests can
// run without AWS credentials. State transitions (running -> stopping ->
// stopped, etc.) are driven explicitly by the test via Advance, not by a
// background clock.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/provider"
)

// Provider is an in-memory fake of the Compute Provider interface.
type Provider struct {
	mu sync.Mutex

	nextID     int
	nodes      map[string]*provider.NodeHandle
	groups     map[string]*cluster.SecurityGroup // keyed by group name
	membership map[string][]string               // node ID -> group names
	settleTo   map[string]cluster.NodeState       // node ID -> state Advance will apply

	// PendingOnLaunch controls whether freshly launched VMs start in
	// "pending" (requiring a poll + Advance to reach "running", the
	// default and the realistic case) or directly "running".
	PendingOnLaunch bool

	// CallerCIDR stands in for the real provider's checkip.amazonaws.com
	// lookup, so tests never make a network call.
	CallerCIDR string
}

// New returns an empty memory provider.
func New() *Provider {
	return &Provider{
		nodes:           make(map[string]*provider.NodeHandle),
		membership:      make(map[string][]string),
		settleTo:        make(map[string]cluster.NodeState),
		groups:          make(map[string]*cluster.SecurityGroup),
		PendingOnLaunch: true,
		CallerCIDR:      "203.0.113.1/32",
	}
}

func (p *Provider) EnsureSecurityGroups(ctx context.Context, clusterName, vpcID, region string) (provider.SecurityGroupHandle, provider.SecurityGroupHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := p.getOrCreateGroupLocked(cluster.BaseSecurityGroupName, vpcID)
	clusterGroup := p.getOrCreateGroupLocked(cluster.ClusterSecurityGroupName(clusterName), vpcID)

	base.Rules = mergeRules(base.Rules, provider.ClientIngressRules(p.CallerCIDR))
	clusterGroup.Rules = mergeRules(clusterGroup.Rules, provider.IntraClusterRules(clusterGroup.ID))

	return *base, *clusterGroup, nil
}

func (p *Provider) getOrCreateGroupLocked(name, vpcID string) *cluster.SecurityGroup {
	if g, ok := p.groups[name]; ok {
		return g
	}
	g := &cluster.SecurityGroup{ID: "sg-" + name, Name: name, VPCID: vpcID}
	p.groups[name] = g
	return g
}

// mergeRules is the fake's equivalent of the EC2 API's duplicate-rule
// tolerance: appending a rule already present is a no-op.
func mergeRules(existing, add []cluster.SecurityGroupRule) []cluster.SecurityGroupRule {
	for _, r := range add {
		found := false
		for _, e := range existing {
			if e == r {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, r)
		}
	}
	return existing
}

func (p *Provider) LaunchVMs(ctx context.Context, spec provider.LaunchSpec) ([]provider.NodeHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := cluster.StateRunning
	if p.PendingOnLaunch {
		state = cluster.StatePending
	}

	handles := make([]provider.NodeHandle, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		p.nextID++
		id := "i-" + strconv.Itoa(p.nextID)
		n := &provider.NodeHandle{
			ID:             id,
			State:          state,
			PublicHostname: id + ".example.com",
			Address:        "10.0.0." + strconv.Itoa(p.nextID),
			Tags:           map[string]string{},
		}
		p.nodes[id] = n
		handles = append(handles, *n)
		if p.PendingOnLaunch {
			p.settleTo[id] = cluster.StateRunning
		}

		// The real EC2 RunInstances request places the instance into
		// every security group ID passed in; mirror that so
		// ListCluster/ListAllClusters can reconstruct cluster identity
		// purely from group membership, same as the real provider.
		for _, groupID := range spec.SecurityGroupIDs {
			for name, g := range p.groups {
				if g.ID == groupID {
					p.membership[id] = append(p.membership[id], name)
				}
			}
		}
	}
	return handles, nil
}

func (p *Provider) Tag(ctx context.Context, nodeIDs []string, tags map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range nodeIDs {
		n, ok := p.nodes[id]
		if !ok {
			return fmt.Errorf("memory provider: unknown node %s", id)
		}
		for k, v := range tags {
			n.Tags[k] = v
		}
	}
	return nil
}

func (p *Provider) ListCluster(ctx context.Context, clusterName, region string) ([]provider.NodeHandle, error) {
	all, err := p.ListAllClusters(ctx, region)
	if err != nil {
		return nil, err
	}
	return all[clusterName], nil
}

func (p *Provider) ListAllClusters(ctx context.Context, region string) (map[string][]provider.NodeHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make(map[string][]provider.NodeHandle)
	for name, group := range p.groups {
		if name == cluster.BaseSecurityGroupName {
			continue
		}
		clusterName := name[len("flintrock-"):]
		for _, n := range p.nodes {
			if p.nodeInGroup(n, group) {
				result[clusterName] = append(result[clusterName], *n)
			}
		}
	}
	return result, nil
}

func (p *Provider) nodeInGroup(n *provider.NodeHandle, g *cluster.SecurityGroup) bool {
	for _, name := range p.membership[n.ID] {
		if name == g.Name {
			return true
		}
	}
	return false
}

func (p *Provider) Start(ctx context.Context, nodeIDs []string) error {
	return p.transition(nodeIDs, cluster.StatePending, cluster.StateRunning)
}

func (p *Provider) Stop(ctx context.Context, nodeIDs []string) error {
	return p.transition(nodeIDs, cluster.StateStopping, cluster.StateStopped)
}

func (p *Provider) Terminate(ctx context.Context, nodeIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range nodeIDs {
		n, ok := p.nodes[id]
		if !ok {
			return fmt.Errorf("memory provider: unknown node %s", id)
		}
		n.State = cluster.StateTerminated
	}
	return nil
}

// transition sets every node to the intermediate state immediately,
// mimicking the provider's "returns immediately, changes asynchronously"
// contract; a test calls Advance to move nodes to the settled state, the
// same way a real poll loop would observe eventual convergence.
func (p *Provider) transition(nodeIDs []string, intermediate, settled cluster.NodeState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range nodeIDs {
		n, ok := p.nodes[id]
		if !ok {
			return fmt.Errorf("memory provider: unknown node %s", id)
		}
		n.State = intermediate
		p.settleTo[id] = settled
	}
	return nil
}

func (p *Provider) Refresh(ctx context.Context, node provider.NodeHandle) (provider.NodeHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[node.ID]
	if !ok {
		return provider.NodeHandle{}, fmt.Errorf("memory provider: unknown node %s", node.ID)
	}
	return *n, nil
}

// Advance settles every node currently mid-transition (pending->running
// or stopping->stopped) into its target state. Tests call this between
// polls to simulate the passage of time a real provider would need.
func (p *Provider) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, target := range p.settleTo {
		if n, ok := p.nodes[id]; ok {
			n.State = target
		}
		delete(p.settleTo, id)
	}
}
