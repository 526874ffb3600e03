package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/domain"
)

var statsFlags struct {
	task    string
	from    string
	to      string
	days    int
	periods int
}

func init() {
	pf := statsCmd.PersistentFlags()
	pf.StringVarP(&statsFlags.task, "task", "t", "", "Limit to one task")
	pf.StringVar(&statsFlags.from, "from", "", "First day (default: --days before --to)")
	pf.StringVar(&statsFlags.to, "to", "today", "Last day")
	pf.IntVar(&statsFlags.days, "days", 30, "Window length when --from is unset")
	statsRollupCmd.Flags().IntVarP(&statsFlags.periods, "periods", "n", 8, "Number of periods")

	statsCmd.AddCommand(statsRollupCmd, statsHeatmapCmd, statsWeekdaysCmd)
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Totals, distribution and consistency for a window",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rng, err := parseRangeArgs(statsFlags.from, statsFlags.to, statsFlags.days, s.svc.Today())
	if err != nil {
		return err
	}
	taskID, err := s.taskID(statsFlags.task)
	if err != nil {
		return err
	}

	total, err := s.svc.Total(s.ctx, s.user, rng, taskID)
	if err != nil {
		return err
	}
	consistency, err := s.svc.Consistency(s.ctx, s.user, taskID, rng.Days())
	if err != nil {
		return err
	}
	slices, err := s.svc.DistributionByTask(s.ctx, s.user, rng)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(s.out, map[string]any{
			"range":        rng,
			"total":        total,
			"consistency":  consistency,
			"distribution": slices,
		})
	}

	fmt.Fprintf(s.out, "%s → %s (%d days)\n", rng.Start, rng.End, rng.Days())
	fmt.Fprintf(s.out, "Total %s │ Consistency %d%%\n\n", num(total), consistency)

	w := newTable(s.out)
	fmt.Fprintln(w, "TASK\tVALUE\tSHARE\t")
	for _, sl := range slices {
		share := 0.0
		if total > 0 && taskID == "" {
			share = sl.Value / total * 100
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\n", sl.TaskName, num(sl.Value), share, strings.Repeat("▇", int(share/5)))
	}
	return w.Flush()
}

var statsRollupCmd = &cobra.Command{
	Use:   "rollup <weekly|monthly>",
	Short: "Per-week or per-month totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		taskID, err := s.taskID(statsFlags.task)
		if err != nil {
			return err
		}
		periods, err := s.svc.Rollup(s.ctx, s.user, domain.GoalInterval(strings.ToLower(args[0])), statsFlags.periods, taskID)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, periods)
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "PERIOD\tFROM\tTO\tVALUE")
		for _, p := range periods {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Label, p.Start, p.End, num(p.Value))
		}
		return w.Flush()
	},
}

var statsWeekdaysCmd = &cobra.Command{
	Use:   "weekdays",
	Short: "Totals per weekday",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rng, err := parseRangeArgs(statsFlags.from, statsFlags.to, statsFlags.days, s.svc.Today())
		if err != nil {
			return err
		}
		taskID, err := s.taskID(statsFlags.task)
		if err != nil {
			return err
		}
		days, err := s.svc.DistributionByWeekday(s.ctx, s.user, rng, taskID)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, days)
		}
		for _, d := range days {
			fmt.Fprintf(s.out, "%s %10s\n", d.Day, num(d.Total))
		}
		return nil
	},
}

var statsHeatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Daily intensity grid, one row per week",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		taskID, err := s.taskID(statsFlags.task)
		if err != nil {
			return err
		}
		days := statsFlags.days
		if !cmd.Flags().Changed("days") {
			days = 84
		}
		series, err := s.svc.Heatmap(s.ctx, s.user, taskID, days)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, series)
		}

		// Rows start on Monday; pad the first row.
		var row strings.Builder
		if len(series) > 0 {
			lead := int(series[0].Date.Weekday()+6) % 7
			row.WriteString(strings.Repeat("  ", lead))
		}
		for _, d := range series {
			row.WriteString(heatCell(d.Intensity) + " ")
			if d.Date.Weekday() == 0 {
				fmt.Fprintln(s.out, strings.TrimRight(row.String(), " "))
				row.Reset()
			}
		}
		if row.Len() > 0 {
			fmt.Fprintln(s.out, strings.TrimRight(row.String(), " "))
		}
		return nil
	},
}
