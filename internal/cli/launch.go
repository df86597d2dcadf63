package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/clustermodule"
	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newLaunchCmd(logger *log.Logger) *cobra.Command {
	var (
		ec2f             ec2Flags
		numSlaves        int
		installSpark     bool
		sparkVersion     string
		launchTimeout    time.Duration
		destroyOnFailure bool
	)

	cmd := &cobra.Command{
		Use:   "launch <cluster-name>",
		Short: "Launch a new Spark cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterName := args[0]

			region := resolveString(cmd, "ec2-region", ec2f.region, cfg.Providers.EC2.Region)
			identityFile := resolveString(cmd, "ec2-identity-file", ec2f.identityFile, cfg.Providers.EC2.IdentityFile)
			user := resolveString(cmd, "ec2-user", ec2f.user, cfg.Providers.EC2.User)
			keyName := resolveString(cmd, "ec2-key-name", ec2f.keyName, cfg.Providers.EC2.KeyName)
			instanceType := resolveString(cmd, "ec2-instance-type", ec2f.instanceType, cfg.Providers.EC2.InstanceType)
			ami := resolveString(cmd, "ec2-ami", ec2f.ami, cfg.Providers.EC2.AMI)
			version := resolveString(cmd, "spark-version", sparkVersion, cfg.Modules.Spark.Version)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ec2, err := ec2provider.New(ctx, region)
			if err != nil {
				return err
			}

			o := orchestrator.New(ec2, logger)

			var modules []clustermodule.Module
			if installSpark {
				modules = append(modules, clustermodule.NewSpark(version, 5*time.Minute))
			}

			opts := orchestrator.LaunchOptions{
				ClusterName:  clusterName,
				NumSlaves:    numSlaves,
				Modules:      modules,
				SSHUser:      user,
				IdentityFile: identityFile,
				Region:       region,
				VPCID:        ec2f.vpcID,
				Spec: provider.LaunchSpec{
					Image:                             ami,
					InstanceType:                      instanceType,
					AvailabilityZone:                  ec2f.availabilityZone,
					SubnetID:                          ec2f.subnetID,
					PlacementGroup:                    ec2f.placementGroup,
					Tenancy:                           ec2f.tenancy,
					EBSOptimized:                      ec2f.ebsOptimized,
					InstanceInitiatedShutdownBehavior: ec2f.instanceInitiatedShutdownBehavior,
					KeyName:                           keyName,
					SpotPrice:                         ec2f.spotPrice,
				},
				LaunchTimeout:    launchTimeout,
				DestroyOnFailure: destroyOnFailure,
			}

			return o.Launch(ctx, opts)
		},
	}

	addEC2Flags(cmd, &ec2f, true)
	cmd.Flags().IntVar(&numSlaves, "num-slaves", 0, "number of slave nodes")
	cmd.Flags().BoolVar(&installSpark, "install-spark", true, "install Spark on the cluster")
	cmd.Flags().StringVar(&sparkVersion, "spark-version", "2.1.0", "Spark release to install")
	cmd.Flags().DurationVar(&launchTimeout, "launch-timeout", orchestrator.DefaultLaunchTimeout, "bound on VM-state polling and per-node provisioning")
	cmd.Flags().BoolVar(&destroyOnFailure, "destroy-on-failure", false, "terminate the cluster if provisioning fails")
	cmd.MarkFlagRequired("num-slaves")

	return cmd
}
