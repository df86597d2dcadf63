package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newStopCmd(logger *log.Logger) *cobra.Command {
	var (
		ec2f      ec2Flags
		assumeYes bool
	)

	cmd := &cobra.Command{
		Use:   "stop <cluster-name>",
		Short: "Stop a cluster's instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := resolveString(cmd, "ec2-region", ec2f.region, cfg.Providers.EC2.Region)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ec2, err := ec2provider.New(ctx, region)
			if err != nil {
				return err
			}
			o := orchestrator.New(ec2, logger)

			return o.Stop(ctx, args[0], region, assumeYes)
		},
	}

	addEC2Flags(cmd, &ec2f, false)
	cmd.Flags().BoolVar(&assumeYes, "assume-yes", false, "skip the confirmation prompt")

	return cmd
}
