package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newRunCommandCmd(logger *log.Logger) *cobra.Command {
	var (
		ec2f       ec2Flags
		masterOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run-command <cluster-name> -- <command> [args...]",
		Short: "Run a shell command on every node of a cluster",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := resolveString(cmd, "ec2-region", ec2f.region, cfg.Providers.EC2.Region)
			identityFile := resolveString(cmd, "ec2-identity-file", ec2f.identityFile, cfg.Providers.EC2.IdentityFile)
			user := resolveString(cmd, "ec2-user", ec2f.user, cfg.Providers.EC2.User)

			ctx := cmd.Context()
			ec2, err := ec2provider.New(ctx, region)
			if err != nil {
				return err
			}
			o := orchestrator.New(ec2, logger)

			return o.RunCommand(ctx, args[0], region, identityFile, user, args[1:], masterOnly)
		},
	}

	addEC2Flags(cmd, &ec2f, false)
	cmd.Flags().BoolVar(&masterOnly, "master-only", false, "run on the master only")

	return cmd
}
