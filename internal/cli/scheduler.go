package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inspect and control the backend task scheduler",
	Args:  cobra.NoArgs,
	RunE:  runSchedulerStatus,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedulerAction(cmd, "Scheduler started", func(e *env) error {
			return e.scheduler.Start(cmd.Context())
		})
	},
}

var schedulerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedulerAction(cmd, "Scheduler stopped", func(e *env) error {
			return e.scheduler.Stop(cmd.Context())
		})
	},
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run a scheduler task now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedulerAction(cmd, fmt.Sprintf("Task %s triggered", args[0]), func(e *env) error {
			return e.scheduler.RunTask(cmd.Context(), args[0])
		})
	},
}

func init() {
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerStopCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	status, err := e.scheduler.Status(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), status)
}

func schedulerAction(cmd *cobra.Command, done string, action func(e *env) error) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	if err := action(e); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
