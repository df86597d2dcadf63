package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newLoginCmd(logger *log.Logger) *cobra.Command {
	var ec2f ec2Flags

	cmd := &cobra.Command{
		Use:   "login <cluster-name>",
		Short: "SSH into a cluster's master",
		Args:  cobra.ExactArgs(1),
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

			return o.Login(ctx, args[0], region, identityFile, user)
		},
	}

	addEC2Flags(cmd, &ec2f, false)

	return cmd
}
