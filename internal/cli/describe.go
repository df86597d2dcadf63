package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nyansa/flintrock/internal/cluster"
	"github.com/Nyansa/flintrock/internal/common/log"
	"github.com/Nyansa/flintrock/internal/common/output"
	"github.com/Nyansa/flintrock/internal/orchestrator"
	"github.com/Nyansa/flintrock/internal/provider/ec2provider"
)

func newDescribeCmd(logger *log.Logger) *cobra.Command {
	var (
		ec2f               ec2Flags
		masterHostnameOnly bool
	)

	cmd := &cobra.Command{
		Use:   "describe [cluster-name]",
		Short: "Describe one cluster, or list every flintrock-managed cluster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := resolveString(cmd, "ec2-region", ec2f.region, cfg.Providers.EC2.Region)

			var clusterName string
			if len(args) == 1 {
				clusterName = args[0]
			}

			ctx := cmd.Context()
			ec2, err := ec2provider.New(ctx, region)
			if err != nil {
				return err
			}
			o := orchestrator.New(ec2, logger)

			summaries, err := o.Describe(ctx, clusterName, region)
			if err != nil {
				return err
			}

			if masterHostnameOnly {
				for _, s := range summaries {
					if s.State != string(cluster.StateRunning) {
						continue
					}
					if master, _ := cluster.SplitMasterSlaves(s.Nodes); master != nil {
						fmt.Println(master.PublicHostname)
					}
				}
				return nil
			}

			printDescribeTable(summaries)
			return nil
		},
	}

	addEC2Flags(cmd, &ec2f, false)
	cmd.Flags().BoolVar(&masterHostnameOnly, "master-hostname-only", false, "print only each cluster's master hostname")

	return cmd
}

func printDescribeTable(summaries []orchestrator.ClusterSummary) {
	table := output.NewTable(os.Stdout, "NAME", "STATE", "NODES", "MASTER")
	for _, s := range summaries {
		master := ""
		if s.State == string(cluster.StateRunning) {
			if m, _ := cluster.SplitMasterSlaves(s.Nodes); m != nil {
				master = m.PublicHostname
			}
		}
		table.AddRow(s.Name, output.ColorizeState(s.State), fmt.Sprintf("%d", s.NodeCount), master)
	}
	table.Flush()
}
