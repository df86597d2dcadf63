// Package cli implements the flintrock command tree: launch, destroy,
// start, stop, describe, login, copy-file, and run-command, each backed
// by internal/orchestrator and a concrete internal/provider/ec2provider
// Provider. Flag parsing, config-file defaults, and the orchestrator
// wiring are kept here so every other package stays provider/CLI-agnostic.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/common/output"
	"github.com/Nyansa/flintrock/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// Execute runs the flintrock CLI.
func Execute(logger *log.Logger) error {
	rootCmd := NewRootCmd(logger)
	return rootCmd.Execute()
}

// NewRootCmd builds the root "flintrock" command and wires every
// subcommand.
func NewRootCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flintrock",
		Short: "Launch and manage Apache Spark clusters on EC2",
		Long: `flintrock provisions and manages ephemeral Apache Spark clusters on EC2.

It launches a set of plain VMs, wires them together with an ephemeral SSH
key, and installs Spark in standalone mode — no persistent state beyond
the cloud tags and security groups that identify a cluster.

Examples:
  # Launch a 3-slave cluster
  flintrock launch my-cluster --num-slaves 3 --ec2-key-name my-key --ec2-identity-file ~/.ssh/my-key.pem

  # Check on it
  flintrock describe my-cluster

  # Tear it down
  flintrock destroy my-cluster`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetVerbose(true)
			}
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	output.ConfigureHelp(cmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: ./config.yaml or ~/.flintrock/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(newLaunchCmd(logger))
	cmd.AddCommand(newDestroyCmd(logger))
	cmd.AddCommand(newStartCmd(logger))
	cmd.AddCommand(newStopCmd(logger))
	cmd.AddCommand(newDescribeCmd(logger))
	cmd.AddCommand(newLoginCmd(logger))
	cmd.AddCommand(newCopyFileCmd(logger))
	cmd.AddCommand(newRunCommandCmd(logger))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(output.Binary("flintrock") + " version v0.1.0-dev")
			cmd.Println("Launch and manage Apache Spark clusters on EC2")
		},
	}
}

// ec2Flags holds the --ec2-* flags shared by every command. Not every
// command uses every field.
type ec2Flags struct {
	keyName                           string
	identityFile                      string
	instanceType                      string
	region                            string
	availabilityZone                  string
	ami                               string
	user                              string
	spotPrice                         string
	vpcID                             string
	subnetID                          string
	placementGroup                    string
	tenancy                           string
	ebsOptimized                      bool
	instanceInitiatedShutdownBehavior string
}

func addEC2Flags(cmd *cobra.Command, f *ec2Flags, full bool) {
	cmd.Flags().StringVar(&f.region, "ec2-region", "us-east-1", "EC2 region")
	cmd.Flags().StringVar(&f.identityFile, "ec2-identity-file", "", "path to the SSH private key for --ec2-key-name")
	cmd.Flags().StringVar(&f.user, "ec2-user", "ec2-user", "SSH user for the cluster's AMI")

	if !full {
		return
	}
	cmd.Flags().StringVar(&f.keyName, "ec2-key-name", "", "name of an existing EC2 key pair")
	cmd.Flags().StringVar(&f.instanceType, "ec2-instance-type", "m3.medium", "EC2 instance type")
	cmd.Flags().StringVar(&f.availabilityZone, "ec2-availability-zone", "", "EC2 availability zone")
	cmd.Flags().StringVar(&f.ami, "ec2-ami", "", "AMI ID to launch")
	cmd.Flags().StringVar(&f.spotPrice, "ec2-spot-price", "", "bid price for spot instances (empty means on-demand)")
	cmd.Flags().StringVar(&f.vpcID, "ec2-vpc-id", "", "VPC ID to launch into")
	cmd.Flags().StringVar(&f.subnetID, "ec2-subnet-id", "", "subnet ID to launch into")
	cmd.Flags().StringVar(&f.placementGroup, "ec2-placement-group", "", "placement group name")
	cmd.Flags().StringVar(&f.tenancy, "ec2-tenancy", "default", "tenancy: default or dedicated")
	cmd.Flags().BoolVar(&f.ebsOptimized, "ec2-ebs-optimized", false, "launch with EBS optimization enabled")
	cmd.Flags().StringVar(&f.instanceInitiatedShutdownBehavior, "ec2-instance-initiated-shutdown-behavior", "stop", "stop or terminate")
}

// resolveString implements original_source's config_to_click layering
// for a single flag: an explicitly passed CLI flag always wins, then the
// config file value if set, then whatever static default the flag was
// registered with.
func resolveString(cmd *cobra.Command, flag, flagValue, configValue string) string {
	if cmd.Flags().Changed(flag) {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return flagValue
}

const defaultDialTimeout = 10 * time.Second
