package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/tally/internal/storage"
	"github.com/spf13/cobra"
)

var (
	activityIcon  string
	activityColor string
	activityName  string
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"activities", "a"},
	Short:   "Manage activities",
}

var activityAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create an activity",
	Example: `  tally activity add Reading
  tally activity add "Side project" --icon pencil --color systemPurple`,
	Args: cobra.ExactArgs(1),
	RunE: runActivityAdd,
}

var activityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List activities in creation order",
	Args:    cobra.NoArgs,
	RunE:    runActivityList,
}

var activityEditCmd = &cobra.Command{
	Use:   "edit REF",
	Short: "Rename or restyle an activity",
	Long:  `Edit an activity's name, icon or color. REF is the activity id or its name (case-insensitive).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runActivityEdit,
}

var activityDeleteCmd = &cobra.Command{
	Use:     "delete REF",
	Aliases: []string{"rm"},
	Short:   "Delete an activity with all of its time entries and goal",
	Args:    cobra.ExactArgs(1),
	RunE:    runActivityDelete,
}

func init() {
	activityAddCmd.Flags().StringVar(&activityIcon, "icon", "book", "Icon name")
	activityAddCmd.Flags().StringVar(&activityColor, "color", "systemBlue", "Color name")

	activityEditCmd.Flags().StringVar(&activityName, "name", "", "New name")
	activityEditCmd.Flags().StringVar(&activityIcon, "icon", "", "New icon name")
	activityEditCmd.Flags().StringVar(&activityColor, "color", "", "New color name")

	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityEditCmd)
	activityCmd.AddCommand(activityDeleteCmd)
	rootCmd.AddCommand(activityCmd)
}

func runActivityAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	activity := storage.Activity{
		ID:        storage.NewID(),
		Name:      strings.TrimSpace(args[0]),
		Icon:      activityIcon,
		Color:     activityColor,
		CreatedAt: time.Now(),
	}

	if err := a.store.Activities().Upsert(cmd.Context(), activity); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	a.logger.Info().Str("activity_id", activity.ID).Str("name", activity.Name).Msg("Activity created")

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Created ")
	printActivity(out, activity)
	return nil
}

func runActivityList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	activities, err := a.store.Activities().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(activities) == 0 {
		fmt.Fprintln(out, "No activities yet. Create one with: tally activity add NAME")
		return nil
	}

	for _, activity := range activities {
		printActivity(out, activity)
	}
	return nil
}

func runActivityEdit(cmd *cobra.Command, args []string) error {
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

	changed := false
	if cmd.Flags().Changed("name") {
		activity.Name = strings.TrimSpace(activityName)
		changed = true
	}
	if cmd.Flags().Changed("icon") {
		activity.Icon = activityIcon
		changed = true
	}
	if cmd.Flags().Changed("color") {
		activity.Color = activityColor
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change: pass --name, --icon or --color")
	}

	if err := a.store.Activities().Upsert(ctx, *activity); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Updated ")
	printActivity(out, *activity)
	return nil
}

func runActivityDelete(cmd *cobra.Command, args []string) error {
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

	if err := a.store.Activities().Delete(ctx, activity.ID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	a.logger.Info().Str("activity_id", activity.ID).Msg("Activity deleted")
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s with its time entries and goal\n", activity.Name)
	return nil
}

// printActivity writes one activity line, its name in the activity's color
func printActivity(out io.Writer, activity storage.Activity) {
	_, _ = colorFor(activity.Color).Fprint(out, activity.Name)
	fmt.Fprintf(out, "  [%s]  %s\n", activity.Icon, activity.ID)
}

// colorFor maps the stored color names onto terminal colors
func colorFor(name string) *color.Color {
	switch strings.TrimPrefix(strings.ToLower(name), "system") {
	case "purple", "indigo":
		return color.New(color.FgMagenta, color.Bold)
	case "green", "mint":
		return color.New(color.FgGreen, color.Bold)
	case "orange":
		return color.New(color.FgYellow, color.Bold)
	case "red", "pink":
		return color.New(color.FgRed, color.Bold)
	case "teal", "cyan":
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgBlue, color.Bold)
	}
}
