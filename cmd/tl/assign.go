package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trunkline/trunkline/internal/assignment"
	"github.com/trunkline/trunkline/internal/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Conversation assignment commands",
	}

	cmd.AddCommand(newAssignManualCmd())
	cmd.AddCommand(newAssignAutoCmd())
	cmd.AddCommand(newTransferCmd())
	cmd.AddCommand(newReleaseCmd())
	return cmd
}

// engineFromConfig opens the database and builds a log-broadcasting engine
// for one-shot commands.
func engineFromConfig(configPath string) (*assignment.Engine, *gorm.DB, error) {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	eng, err := assignment.New(assignment.Opts{
		DB:          gormDB,
		Broadcaster: events.NewLog(zap.NewNop()),
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return nil, nil, err
	}
	return eng, gormDB, nil
}

func newAssignManualCmd() *cobra.Command {
	var (
		configPath string
		assignedBy string
	)

	cmd := &cobra.Command{
		Use:   "manual <conversation-id> <agent-id>",
		Short: "Assign a conversation to a specific agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := engineFromConfig(configPath)
			if err != nil {
				return err
			}
			record, err := eng.AssignManual(cmd.Context(), args[0], args[1], assignedBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", record.ConversationID, record.AgentID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVar(&assignedBy, "by", "cli", "user recorded as the assigner")
	return cmd
}

func newAssignAutoCmd() *cobra.Command {
	var (
		configPath string
		tenantID   string
		priority   string
	)

	cmd := &cobra.Command{
		Use:   "auto <conversation-id>",
		Short: "Assign a conversation using the tenant's algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := engineFromConfig(configPath)
			if err != nil {
				return err
			}
			result, err := eng.AssignAutomatic(cmd.Context(), args[0], tenantID, priority)
			if err != nil {
				return err
			}
			if result.Outcome == assignment.OutcomeAssigned {
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s (%s)\n",
					result.Record.ConversationID, result.Record.AgentID, result.Record.Method)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Not assigned: %s\n", result.Outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the conversation belongs to")
	cmd.Flags().StringVar(&priority, "priority", "", "conversation priority (low|medium|high|urgent)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

func newTransferCmd() *cobra.Command {
	var (
		configPath string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "transfer <conversation-id> <from-agent-id> <to-agent-id>",
		Short: "Transfer a conversation between agents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := engineFromConfig(configPath)
			if err != nil {
				return err
			}
			record, err := eng.Transfer(cmd.Context(), args[0], args[1], args[2], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s to %s\n", record.ConversationID, record.AgentID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "reason recorded on the conversation")
	return cmd
}

func newReleaseCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "release <conversation-id> <agent-id>",
		Short: "Release a conversation back to the unassigned pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := engineFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := eng.Release(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trunkline.yaml", "path to Trunkline config file")
	return cmd
}
