package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/tally/internal/analytics"
	"github.com/goodtune/tally/internal/storage"
	"github.com/spf13/cobra"
)

var (
	goalHours     float64
	goalTimeframe string
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"goals"},
	Short:   "Manage goals",
}

var goalSetCmd = &cobra.Command{
	Use:   "set REF",
	Short: "Set the goal of an activity",
	Long: `Set the target hours for an activity over a daily, weekly or monthly
timeframe. An activity has at most one goal; setting it again updates it.`,
	Example: `  tally goal set Reading --hours 5 --timeframe weekly`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGoalSet,
}

var goalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List goals",
	Args:    cobra.NoArgs,
	RunE:    runGoalList,
}

func init() {
	goalSetCmd.Flags().Float64Var(&goalHours, "hours", 0, "Target hours (required)")
	goalSetCmd.Flags().StringVar(&goalTimeframe, "timeframe", "weekly", "daily, weekly or monthly")
	_ = goalSetCmd.MarkFlagRequired("hours")

	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalListCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalSet(cmd *cobra.Command, args []string) error {
	timeframe, err := storage.ParseTimeframe(goalTimeframe)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	activity, err := resolveActivity(ctx, a.store, args[0])
	if err != nil {
		return err
	}

	goal := storage.Goal{
		ID:          storage.NewID(),
		ActivityID:  activity.ID,
		TargetHours: goalHours,
		Timeframe:   timeframe,
		CreatedAt:   time.Now(),
	}

	if err := a.store.Goals().Upsert(ctx, goal); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Goal for %s: %s %s\n",
		activity.Name, formatHours(goalHours), timeframe)
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	goals, err := a.store.Goals().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(goals) == 0 {
		fmt.Fprintln(out, "No goals set. Add one with: tally goal set REF --hours H --timeframe weekly")
		return nil
	}

	for _, goal := range goals {
		activity, err := a.store.Activities().Get(ctx, goal.ActivityID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		_, _ = colorFor(activity.Color).Fprint(out, activity.Name)
		fmt.Fprintf(out, "  %s %s (%s)\n",
			formatHours(goal.TargetHours), goal.Timeframe, analytics.FormatDuration(goal.Target()))
	}
	return nil
}

func formatHours(h float64) string {
	return fmt.Sprintf("%gh", h)
}
