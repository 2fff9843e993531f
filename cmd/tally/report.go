package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/tally/internal/analytics"
	"github.com/goodtune/tally/internal/storage"
	"github.com/spf13/cobra"
)

const banner = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var (
	reportTimeframe string
	reportDate      string
	reportMonth     string
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"r"},
	Short:   "Show tracked time",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, breakdown, streaks and goal completion for a timeframe",
	Example: `  tally report summary --timeframe weekly
  tally report summary --timeframe monthly --date 2024-03-31`,
	Args: cobra.NoArgs,
	RunE: runReportSummary,
}

var reportCalendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Heat map of one month",
	Example: `  tally report calendar --month 2024-03`,
	Args:    cobra.NoArgs,
	RunE:    runReportCalendar,
}

var reportDayCmd = &cobra.Command{
	Use:     "day",
	Short:   "Per-activity breakdown of one day",
	Example: `  tally report day --date 2024-03-10`,
	Args:    cobra.NoArgs,
	RunE:    runReportDay,
}

var reportGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Progress toward every goal",
	Args:  cobra.NoArgs,
	RunE:  runReportGoals,
}

var reportTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Time tracked today for every activity",
	Args:  cobra.NoArgs,
	RunE:  runReportToday,
}

func init() {
	reportSummaryCmd.Flags().StringVar(&reportTimeframe, "timeframe", "weekly", "daily, weekly or monthly")
	reportSummaryCmd.Flags().StringVar(&reportDate, "date", "", "Reference date YYYY-MM-DD (default today)")
	reportCalendarCmd.Flags().StringVar(&reportMonth, "month", "", "Month YYYY-MM (default this month)")
	reportDayCmd.Flags().StringVar(&reportDate, "date", "", "Date YYYY-MM-DD (default today)")
	reportGoalsCmd.Flags().StringVar(&reportDate, "date", "", "Reference date YYYY-MM-DD (default today)")

	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportCalendarCmd)
	reportCmd.AddCommand(reportDayCmd)
	reportCmd.AddCommand(reportGoalsCmd)
	reportCmd.AddCommand(reportTodayCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	timeframe, err := storage.ParseTimeframe(reportTimeframe)
	if err != nil {
		return err
	}
	ref, err := parseDate(reportDate, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := analytics.NewService(a.store, a.logger).Summary(cmd.Context(), timeframe, ref)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func runReportCalendar(cmd *cobra.Command, args []string) error {
	month, err := parseMonth(reportMonth, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	days, err := analytics.NewService(a.store, a.logger).Calendar(cmd.Context(), month, a.cfg.Analytics.IntensityCapHours)
	if err != nil {
		return err
	}

	printCalendar(cmd.OutOrStdout(), month, days)
	return nil
}

func runReportDay(cmd *cobra.Command, args []string) error {
	day, err := parseDate(reportDate, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := analytics.NewService(a.store, a.logger).Day(cmd.Context(), day)
	if err != nil {
		return err
	}

	printDay(cmd.OutOrStdout(), report)
	return nil
}

func runReportGoals(cmd *cobra.Command, args []string) error {
	today, err := parseDate(reportDate, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	statuses, err := analytics.NewService(a.store, a.logger).Goals(cmd.Context(), today)
	if err != nil {
		return err
	}

	printGoals(cmd.OutOrStdout(), statuses)
	return nil
}

func runReportToday(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := analytics.NewService(a.store, a.logger).Today(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	printToday(cmd.OutOrStdout(), rows)
	return nil
}

func printHeader(out io.Writer, title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(out)
	_, _ = cyan.Fprintln(out, banner)
	_, _ = cyan.Fprintln(out, title)
	_, _ = cyan.Fprintln(out, banner)
	fmt.Fprintln(out)
}

func printFooter(out io.Writer) {
	fmt.Fprintln(out)
	_, _ = color.New(color.FgCyan, color.Bold).Fprintln(out, banner)
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, s *analytics.Summary) {
	printHeader(out, strings.ToUpper(string(s.Timeframe))+" SUMMARY")

	fmt.Fprintf(out, "Window:        %s to %s\n", s.Window.Start.Format(time.DateOnly), s.Window.End.Format(time.DateOnly))
	fmt.Fprintf(out, "Total:         %s\n", analytics.FormatDuration(s.Total))
	fmt.Fprintf(out, "Daily average: %s\n", analytics.FormatDuration(s.AverageDaily))
	fmt.Fprintf(out, "Activities:    %d active\n", s.ActiveActivities)
	if s.HasBestDay {
		fmt.Fprintf(out, "Best day:      %s (%s)\n", s.BestDay.Day.Format("Mon Jan 2"), analytics.FormatDuration(s.BestDay.Duration))
	}
	if s.HasMostActiveDay {
		fmt.Fprintf(out, "Busiest day:   %s\n", s.MostActiveWeekday)
	}
	fmt.Fprintf(out, "Streak:        %d days (longest %d)\n", s.CurrentStreak, s.LongestStreak)
	fmt.Fprintf(out, "Goals met:     %.0f%%\n", s.GoalCompletionRate)

	if len(s.Activities) > 0 {
		fmt.Fprintln(out)
		printBreakdown(out, s.Activities)
	}

	printFooter(out)
}

func printBreakdown(out io.Writer, rows []analytics.ActivityTotal) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Activity.Name))
	}
	for _, r := range rows {
		_, _ = colorFor(r.Activity.Color).Fprintf(out, "%-*s", width, r.Activity.Name)
		fmt.Fprintf(out, "  %8s  %5.1f%%  %s\n",
			analytics.FormatDuration(r.Duration), r.Percentage, bar(r.Percentage/100, 20))
	}
}

// bar renders fraction (0..1) as a fixed-width block bar
func bar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// printCalendar draws month as weeks starting on Sunday, each day shaded by
// its intensity
func printCalendar(out io.Writer, month time.Time, days []analytics.DayIntensity) {
	printHeader(out, strings.ToUpper(month.Format("January 2006")))

	fmt.Fprintln(out, " Su  Mo  Tu  We  Th  Fr  Sa")
	if len(days) > 0 {
		fmt.Fprint(out, strings.Repeat("    ", int(days[0].Day.Weekday())))
	}

	var total time.Duration
	for _, d := range days {
		total += d.Duration
		_, _ = shade(d.Intensity).Fprintf(out, " %2d ", d.Day.Day())
		if d.Day.Weekday() == time.Saturday {
			fmt.Fprintln(out)
		}
	}
	if len(days) > 0 && days[len(days)-1].Day.Weekday() != time.Saturday {
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %s\n", analytics.FormatDuration(total))
	printFooter(out)
}

// shade picks the heat map color for an intensity in 0..1
func shade(intensity float64) *color.Color {
	switch {
	case intensity <= 0:
		return color.New(color.FgHiBlack)
	case intensity < 0.25:
		return color.New(color.FgBlack, color.BgHiGreen)
	case intensity < 0.5:
		return color.New(color.FgBlack, color.BgGreen)
	case intensity < 0.75:
		return color.New(color.FgWhite, color.BgGreen, color.Bold)
	default:
		return color.New(color.FgHiWhite, color.BgHiBlack, color.Bold)
	}
}

func printDay(out io.Writer, report *analytics.DayReport) {
	printHeader(out, strings.ToUpper(report.Day.Format("Monday, January 2 2006")))

	if len(report.Activities) == 0 {
		fmt.Fprintln(out, "Nothing tracked.")
	} else {
		printBreakdown(out, report.Activities)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Total: %s\n", analytics.FormatDuration(report.Total))
	}

	printFooter(out)
}

func printGoals(out io.Writer, statuses []analytics.GoalStatus) {
	printHeader(out, "GOALS")

	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	if len(statuses) == 0 {
		fmt.Fprintln(out, "No goals set.")
	}
	for _, st := range statuses {
		_, _ = colorFor(st.Activity.Color).Fprint(out, st.Activity.Name)
		fmt.Fprintf(out, "  %s of %s %s  %s ",
			analytics.FormatDuration(st.Actual), analytics.FormatDuration(st.Goal.Target()),
			st.Goal.Timeframe, bar(st.Progress/100, 20))
		if st.Progress >= 100 {
			_, _ = green.Fprintln(out, "done")
		} else {
			_, _ = yellow.Fprintf(out, "%.0f%%\n", st.Progress)
		}
	}

	printFooter(out)
}

func printToday(out io.Writer, rows []analytics.ActivityTotal) {
	printHeader(out, "TODAY")

	if len(rows) == 0 {
		fmt.Fprintln(out, "No activities yet. Create one with: tally activity add NAME")
	} else {
		var total time.Duration
		for _, r := range rows {
			total += r.Duration
		}
		printBreakdown(out, rows)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Total: %s\n", analytics.FormatDuration(total))
	}

	printFooter(out)
}

// parseDate parses YYYY-MM-DD in the local zone as the last second of that
// day, so windows ending there include the whole day. Empty means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return endOfDay(t), nil
}

// parseMonth parses YYYY-MM in the local zone; empty means this month
func parseMonth(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
