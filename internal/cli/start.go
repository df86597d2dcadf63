package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/clustermodule"
	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newStartCmd(logger *log.Logger) *cobra.Command {
	var ec2f ec2Flags

	cmd := &cobra.Command{
		Use:   "start <cluster-name>",
		Short: "Start a stopped cluster's instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := resolveString(cmd, "ec2-region", ec2f.region, cfg.Providers.EC2.Region)
			identityFile := resolveString(cmd, "ec2-identity-file", ec2f.identityFile, cfg.Providers.EC2.IdentityFile)
			user := resolveString(cmd, "ec2-user", ec2f.user, cfg.Providers.EC2.User)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ec2, err := ec2provider.New(ctx, region)
			if err != nil {
				return err
			}
			o := orchestrator.New(ec2, logger)

			// The Spark version installed on a previously-launched
			// cluster is unknown at start time since no state is
			// persisted; Configure only rewrites spark-env.sh, which
			// doesn't depend on it.
			modules := []clustermodule.Module{clustermodule.NewSpark("unknown", 5*time.Minute)}

			return o.Start(ctx, orchestrator.StartOptions{
				ClusterName:  args[0],
				Region:       region,
				SSHUser:      user,
				IdentityFile: identityFile,
				Modules:      modules,
			})
		},
	}

	addEC2Flags(cmd, &ec2f, false)

	return cmd
}
