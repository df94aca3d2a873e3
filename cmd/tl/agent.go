package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/settings"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent directory commands",
	}

	cmd.AddCommand(newAgentStatusCmd())
	cmd.AddCommand(newAgentListCmd())
	return cmd
}

func newAgentStatusCmd() *cobra.Command {
	var (
		configPath string
		tenantID   string
	)

	cmd := &cobra.Command{
		Use:   "status <agent-id> <status>",
		Short: "Update an agent's presence status",
		Long:  "Sets the agent's status (available|busy|away|offline) and refreshes last-seen.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := engineFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := eng.UpdateAgentStatus(cmd.Context(), args[0], tenantID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Agent %s is now %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the agent belongs to")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

func newAgentListCmd() *cobra.Command {
	var (
		configPath string
		tenantID   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's assignable agents with workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			cfg := settings.Get(gormDB, tenantID)
			now := time.Now()
			infos, err := directory.ListEligibleAgents(gormDB, tenantID, now)
			if err != nil {
				return err
			}
			infos = directory.Annotate(infos, cfg.MaxConversationsPerAgent, now)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS\tACTIVE\tWORKLOAD\tAVAILABILITY")
			for _, a := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d%%\t%d\n",
					a.ID, a.Name, a.Role, a.Status, a.ActiveConversations, a.Workload, a.Availability)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant to list")
	cmd.MarkFlagRequired("tenant")
	return cmd
}
