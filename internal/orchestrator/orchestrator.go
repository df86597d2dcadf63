// Package orchestrator implements C6, the lifecycle coordinator that
// drives a Provider, a set of Modules, and the SSH transport through
// launch, start, stop, destroy, describe, and the per-node operator
// utilities. It is the only component that talks to more than one of the
// others at once.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/clustermodule"
	"github.com/Nyansa/flintrock/internal/common/log"
	flintrockerrors "github.com/Nyansa/flintrock/internal/errors"
	"github.com/Nyansa/flintrock/internal/keys"
	"github.com/Nyansa/flintrock/internal/provider"
	"github.com/Nyansa/flintrock/internal/sshtransport"
)

// Orchestrator coordinates a Provider and a set of Modules on behalf of
// every CLI command. One Orchestrator is built per invocation.
type Orchestrator struct {
	Provider provider.Provider
	Logger   *log.Logger

	// MaxWorkers caps the per-node fan-out worker pool; 0 means "one
	// worker per node" (no cap beyond the node count itself).
	MaxWorkers int
}

// New builds an Orchestrator around the given Provider.
func New(p provider.Provider, logger *log.Logger) *Orchestrator {
	return &Orchestrator{Provider: p, Logger: logger, MaxWorkers: 32}
}

func (o *Orchestrator) maxWorkers() int {
	if o.MaxWorkers <= 0 {
		return 0
	}
	return o.MaxWorkers
}

// LaunchOptions configures Launch. Spec.Count and Spec.SecurityGroupIDs
// are overwritten by Launch itself; every other LaunchSpec field is
// taken as given.
type LaunchOptions struct {
	ClusterName string
	NumSlaves   int
	Modules     []clustermodule.Module

	SSHUser      string
	IdentityFile string

	Region string
	VPCID  string
	Spec   provider.LaunchSpec

	SparkScratchDir string
	SparkMasterOpts string

	LaunchTimeout    time.Duration
	DestroyOnFailure bool
}

// Launch provisions a brand-new cluster: security groups, VMs, tags, an
// ephemeral key pair, per-node module installation (parallel), and
// serial master bring-up.
func (o *Orchestrator) Launch(ctx context.Context, opts LaunchOptions) error {
	existing, err := o.Provider.ListCluster(ctx, opts.ClusterName, opts.Region)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return &flintrockerrors.ClusterAlreadyExists{Name: opts.ClusterName}
	}

	timeout := opts.LaunchTimeout
	if timeout <= 0 {
		timeout = DefaultLaunchTimeout
	}

	o.Logger.Phase("Setting up security groups...")
	base, clusterGroup, err := o.Provider.EnsureSecurityGroups(ctx, opts.ClusterName, opts.VPCID, opts.Region)
	if err != nil {
		return err
	}

	count := opts.NumSlaves + 1
	o.Logger.Phase(fmt.Sprintf("Launching %d instances...", count))

	spec := opts.Spec
	spec.Count = count
	spec.SecurityGroupIDs = []string{base.ID, clusterGroup.ID}

	nodes, err := o.Provider.LaunchVMs(ctx, spec)
	if err != nil {
		return err
	}

	time.Sleep(postLaunchWait)

	o.Logger.Waiting("Waiting for all instances to reach running state...")
	nodes, err = o.waitUntilState(ctx, nodes, cluster.StateRunning, timeout)
	if err != nil {
		return err
	}

	master := nodes[0]
	slaves := nodes[1:]

	if err := o.Provider.Tag(ctx, []string{master.ID}, map[string]string{
		cluster.RoleTagKey: string(cluster.RoleMaster),
		cluster.NameTagKey: opts.ClusterName + "-master",
	}); err != nil {
		return err
	}
	slaveIDs := make([]string, len(slaves))
	for i, s := range slaves {
		slaveIDs[i] = s.ID
	}
	if len(slaveIDs) > 0 {
		if err := o.Provider.Tag(ctx, slaveIDs, map[string]string{
			cluster.RoleTagKey: string(cluster.RoleSlave),
			cluster.NameTagKey: opts.ClusterName + "-slave",
		}); err != nil {
			return err
		}
	}

	keyPair, err := keys.Generate()
	if err != nil {
		return fmt.Errorf("generating cluster SSH key pair: %w", err)
	}

	slaveHosts := make([]string, len(slaves))
	for i, s := range slaves {
		slaveHosts[i] = s.PublicHostname
	}

	info := cluster.ClusterInfo{
		Name:            opts.ClusterName,
		SSHKeyPair:      keyPair,
		MasterHost:      master.PublicHostname,
		SlaveHosts:      slaveHosts,
		SparkScratchDir: opts.SparkScratchDir,
		SparkMasterOpts: opts.SparkMasterOpts,
	}
	if err := info.Validate(opts.NumSlaves); err != nil {
		return err
	}

	identitySigner, err := loadIdentityFile(opts.IdentityFile)
	if err != nil {
		return err
	}

	provisionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	o.Logger.Phase(fmt.Sprintf("Provisioning %d nodes...", len(nodes)))
	fanoutErr := fanOut(provisionCtx, o.maxWorkers(), nodes, func(ctx context.Context, n provider.NodeHandle) error {
		return o.provisionNode(ctx, n, opts.SSHUser, identitySigner, opts.Modules, info)
	})

	if fanoutErr != nil {
		if opts.DestroyOnFailure {
			o.Logger.Phase("Destroying cluster after provisioning failure...")
			ids := make([]string, len(nodes))
			for i, n := range nodes {
				ids[i] = n.ID
			}
			if termErr := o.Provider.Terminate(ctx, ids); termErr != nil {
				o.Logger.Logger.Error("failed to terminate nodes after provisioning failure", "error", termErr)
			}
		}
		return fanoutErr
	}
	o.Logger.Success(fmt.Sprintf("All %d instances provisioned.", len(nodes)))

	masterSession, err := sshtransport.Connect(ctx, opts.SSHUser, master.PublicHostname, identitySigner, 10*time.Second)
	if err != nil {
		return err
	}
	defer sshtransport.Close(masterSession)

	for _, m := range opts.Modules {
		o.Logger.Phase(fmt.Sprintf("Configuring master (%s)...", m.Name()))
		if err := m.ConfigureMaster(ctx, masterSession, info); err != nil {
			return err
		}

		time.Sleep(masterBringUpWait)

		report, err := m.HealthCheck(ctx, info.MasterHost)
		if err != nil {
			return err
		}
		o.Logger.Success(report.Summary)
	}

	o.Logger.Success(fmt.Sprintf("Spark cluster %s is now running.", opts.ClusterName))
	return nil
}

// provisionNode runs on one freshly launched node: install the
// intra-cluster key, ensure Java, then install and configure every
// module in order. Strictly sequential within the node; safe to run
// concurrently across nodes.
func (o *Orchestrator) provisionNode(ctx context.Context, node provider.NodeHandle, user string, signer ssh.Signer, modules []clustermodule.Module, info cluster.ClusterInfo) error {
	session, err := sshtransport.Connect(ctx, user, node.PublicHostname, signer, 10*time.Second)
	if err != nil {
		return err
	}
	defer sshtransport.Close(session)

	if err := installClusterKey(session, info.SSHKeyPair); err != nil {
		return fmt.Errorf("installing cluster key on %s: %w", node.PublicHostname, err)
	}

	if err := ensureJava(ctx, session); err != nil {
		return fmt.Errorf("installing Java on %s: %w", node.PublicHostname, err)
	}

	for _, m := range modules {
		if err := m.Install(ctx, session, info); err != nil {
			return err
		}
		if err := m.Configure(ctx, session, info); err != nil {
			return err
		}
	}
	return nil
}

// installClusterKey writes the ephemeral private key to ~/.ssh/id_rsa
// (mode 400) and appends the public key to ~/.ssh/authorized_keys, so
// every node in the cluster can SSH to every other as the same user.
// The public key is uploaded to a scratch path and appended remotely
// rather than interpolated into a shell command, unlike
// original_source's shlex.quote-and-echo approach.
func installClusterKey(session *sshtransport.Session, keyPair cluster.KeyPairText) error {
	if err := sshtransport.Upload(session, ".ssh/id_rsa", []byte(keyPair.PrivateText), 0400); err != nil {
		return err
	}

	const scratchPath = "/tmp/flintrock_id_rsa.pub"
	if err := sshtransport.Upload(session, scratchPath, []byte(keyPair.PublicText), 0644); err != nil {
		return err
	}

	_, err := sshtransport.Run(context.Background(), session,
		fmt.Sprintf("cat %s >> ~/.ssh/authorized_keys && rm %s", scratchPath, scratchPath))
	return err
}

// ensureJava matches original_source's CentOS-targeted Java 7 install,
// gated on $JAVA_HOME being unset.
func ensureJava(ctx context.Context, session *sshtransport.Session) error {
	result, err := sshtransport.Run(ctx, session, `echo "$JAVA_HOME"`)
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Stdout) != "" {
		return nil
	}

	_, err = sshtransport.Run(ctx, session, `
		set -e
		sudo yum install -y java-1.7.0-openjdk
		sudo sh -c "echo export JAVA_HOME=/usr/lib/jvm/jre >> /etc/environment"
	`)
	return err
}

func loadIdentityFile(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file %s: %w", path, err)
	}
	return keys.Signer(string(data))
}

// StartOptions configures Start.
type StartOptions struct {
	ClusterName  string
	Region       string
	SSHUser      string
	IdentityFile string
	Modules      []clustermodule.Module
}

// Start brings an existing, stopped cluster back up. The ephemeral key
// pair generated at launch does not survive a stop/start cycle (see
// original_source), so ClusterInfo.SSHKeyPair is left zero-valued here;
// every Module's Configure/ConfigureMaster path must therefore depend
// only on the already-installed software tree, never on the key.
func (o *Orchestrator) Start(ctx context.Context, opts StartOptions) error {
	nodes, err := o.Provider.ListCluster(ctx, opts.ClusterName, opts.Region)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return &flintrockerrors.ClusterNotFound{Name: opts.ClusterName}
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	o.Logger.Phase(fmt.Sprintf("Starting %d instances...", len(ids)))
	if err := o.Provider.Start(ctx, ids); err != nil {
		return err
	}

	nodes, err = o.waitUntilState(ctx, nodes, cluster.StateRunning, DefaultLaunchTimeout)
	if err != nil {
		return err
	}

	master, slaves := cluster.SplitMasterSlaves(nodes)
	if master == nil {
		return fmt.Errorf("cluster %s has no node tagged as master", opts.ClusterName)
	}

	slaveHosts := make([]string, len(slaves))
	for i, s := range slaves {
		slaveHosts[i] = s.PublicHostname
	}
	info := cluster.ClusterInfo{
		Name:       opts.ClusterName,
		MasterHost: master.PublicHostname,
		SlaveHosts: slaveHosts,
	}

	signer, err := loadIdentityFile(opts.IdentityFile)
	if err != nil {
		return err
	}

	o.Logger.Phase("Configuring nodes...")
	err = fanOut(ctx, o.maxWorkers(), nodes, func(ctx context.Context, n provider.NodeHandle) error {
		session, err := sshtransport.Connect(ctx, opts.SSHUser, n.PublicHostname, signer, 10*time.Second)
		if err != nil {
			return err
		}
		defer sshtransport.Close(session)
		for _, m := range opts.Modules {
			if err := m.Configure(ctx, session, info); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	masterSession, err := sshtransport.Connect(ctx, opts.SSHUser, master.PublicHostname, signer, 10*time.Second)
	if err != nil {
		return err
	}
	defer sshtransport.Close(masterSession)

	for _, m := range opts.Modules {
		if err := m.ConfigureMaster(ctx, masterSession, info); err != nil {
			return err
		}
		time.Sleep(masterBringUpWait)
		report, err := m.HealthCheck(ctx, info.MasterHost)
		if err != nil {
			return err
		}
		o.Logger.Success(report.Summary)
	}

	o.Logger.Success(fmt.Sprintf("Spark cluster %s is now running.", opts.ClusterName))
	return nil
}

// Stop shuts down every node of an existing cluster.
func (o *Orchestrator) Stop(ctx context.Context, clusterName, region string, assumeYes bool) error {
	nodes, err := o.Provider.ListCluster(ctx, clusterName, region)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return &flintrockerrors.ClusterNotFound{Name: clusterName}
	}

	if !assumeYes {
		if err := confirm(fmt.Sprintf("Are you sure you want to stop cluster %q?", clusterName)); err != nil {
			return err
		}
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	o.Logger.Phase(fmt.Sprintf("Stopping %d instances...", len(ids)))
	if err := o.Provider.Stop(ctx, ids); err != nil {
		return err
	}
	if _, err := o.waitUntilState(ctx, nodes, cluster.StateStopped, DefaultLaunchTimeout); err != nil {
		return err
	}
	o.Logger.Success(fmt.Sprintf("Cluster %s is now stopped.", clusterName))
	return nil
}

// Destroy terminates every node of an existing cluster. The cluster
// security group is left in place; see original_source's own TODO about
// not reusing it.
func (o *Orchestrator) Destroy(ctx context.Context, clusterName, region string, assumeYes bool) error {
	nodes, err := o.Provider.ListCluster(ctx, clusterName, region)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return &flintrockerrors.ClusterNotFound{Name: clusterName}
	}

	if !assumeYes {
		if err := confirm(fmt.Sprintf("Are you sure you want to destroy cluster %q?", clusterName)); err != nil {
			return err
		}
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	o.Logger.Phase(fmt.Sprintf("Terminating %d instances...", len(ids)))
	if err := o.Provider.Terminate(ctx, ids); err != nil {
		return err
	}
	o.Logger.Success(fmt.Sprintf("Cluster %s destroyed.", clusterName))
	return nil
}

func confirm(prompt string) error {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))
	if response != "y" && response != "yes" {
		return &flintrockerrors.UserAbort{}
	}
	return nil
}

// ClusterSummary is one Describe result.
type ClusterSummary struct {
	Name      string
	State     string
	NodeCount int
	Nodes     []provider.NodeHandle
}

// Describe lists one cluster (by name) or every flintrock-managed
// cluster in the region, grouped by cluster-group membership.
func (o *Orchestrator) Describe(ctx context.Context, clusterName, region string) ([]ClusterSummary, error) {
	if clusterName != "" {
		nodes, err := o.Provider.ListCluster(ctx, clusterName, region)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, &flintrockerrors.ClusterNotFound{Name: clusterName}
		}
		return []ClusterSummary{summarize(clusterName, nodes)}, nil
	}

	all, err := o.Provider.ListAllClusters(ctx, region)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]ClusterSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, summarize(name, all[name]))
	}
	return summaries, nil
}

func summarize(name string, nodes []provider.NodeHandle) ClusterSummary {
	return ClusterSummary{
		Name:      name,
		State:     cluster.AggregateState(nodes),
		NodeCount: len(nodes),
		Nodes:     nodes,
	}
}

// Login finds the master of an existing cluster and execs a local ssh
// client against it, replacing the current process's stdio.
func (o *Orchestrator) Login(ctx context.Context, clusterName, region, identityFile, user string) error {
	nodes, err := o.Provider.ListCluster(ctx, clusterName, region)
	if err != nil {
		return err
	}
	master, _ := cluster.SplitMasterSlaves(nodes)
	if master == nil {
		return fmt.Errorf("could not find a master for cluster %q in region %s", clusterName, region)
	}

	return sshExec(ctx, user, master.PublicHostname, identityFile)
}

func sshExec(ctx context.Context, user, host, identityFile string) error {
	cmd := exec.CommandContext(ctx, "ssh",
		"-o", "StrictHostKeyChecking=no",
		"-i", identityFile,
		fmt.Sprintf("%s@%s", user, host),
	)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// CopyFile uploads localPath to remotePath on every node of a cluster
// (or the master only), over the same fan-out primitive provisionNode
// uses. An operator utility with no counterpart in original_source.
func (o *Orchestrator) CopyFile(ctx context.Context, clusterName, region, identityFile, user, localPath, remotePath string, masterOnly bool) error {
	nodes, err := o.targetNodes(ctx, clusterName, region, masterOnly)
	if err != nil {
		return err
	}

	contents, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}

	signer, err := loadIdentityFile(identityFile)
	if err != nil {
		return err
	}

	return fanOut(ctx, o.maxWorkers(), nodes, func(ctx context.Context, n provider.NodeHandle) error {
		session, err := sshtransport.Connect(ctx, user, n.PublicHostname, signer, 10*time.Second)
		if err != nil {
			return err
		}
		defer sshtransport.Close(session)
		if err := sshtransport.Upload(session, remotePath, contents, 0644); err != nil {
			return err
		}
		o.Logger.Logger.Info("copied file", "host", n.PublicHostname, "path", remotePath)
		return nil
	})
}

// RunCommand runs command on every node of a cluster (or the master
// only) and streams each node's output prefixed by hostname.
func (o *Orchestrator) RunCommand(ctx context.Context, clusterName, region, identityFile, user string, command []string, masterOnly bool) error {
	nodes, err := o.targetNodes(ctx, clusterName, region, masterOnly)
	if err != nil {
		return err
	}

	signer, err := loadIdentityFile(identityFile)
	if err != nil {
		return err
	}

	script := strings.Join(command, " ")

	return fanOut(ctx, o.maxWorkers(), nodes, func(ctx context.Context, n provider.NodeHandle) error {
		session, err := sshtransport.Connect(ctx, user, n.PublicHostname, signer, 10*time.Second)
		if err != nil {
			return err
		}
		defer sshtransport.Close(session)

		result, err := sshtransport.Run(ctx, session, script)
		if result != nil {
			for _, line := range strings.Split(strings.TrimRight(result.Stdout, "\n"), "\n") {
				if line != "" {
					fmt.Printf("[%s] %s\n", n.PublicHostname, line)
				}
			}
		}
		return err
	})
}

func (o *Orchestrator) targetNodes(ctx context.Context, clusterName, region string, masterOnly bool) ([]provider.NodeHandle, error) {
	nodes, err := o.Provider.ListCluster(ctx, clusterName, region)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &flintrockerrors.ClusterNotFound{Name: clusterName}
	}
	if !masterOnly {
		return nodes, nil
	}
	master, _ := cluster.SplitMasterSlaves(nodes)
	if master == nil {
		return nil, fmt.Errorf("could not find a master for cluster %q", clusterName)
	}
	return []provider.NodeHandle{*master}, nil
}
