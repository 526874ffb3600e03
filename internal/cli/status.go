package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries")
	achievementsCmd.Flags().BoolVar(&achCheck, "check", false, "Re-check and unlock anything newly earned")
	rootCmd.AddCommand(statusCmd, streakCmd, historyCmd, achievementsCmd, bonusCmd)
}

var (
	historyLimit int
	achCheck     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, streaks, goals and open pacts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.svc.Dashboard(s.ctx, s.user)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(s.out, d)
	}

	name := d.DisplayName
	if name == "" {
		name = d.UserID
	}
	fmt.Fprintf(s.out, "%s · %s\n", name, d.Today)
	fmt.Fprintln(s.out, levelBar(d.Level))
	fmt.Fprintf(s.out, "Today %s │ Streak %d │ Consistency %d%% │ Crystals %d │ Bonus %s │ Achievements %d/%d\n",
		num(d.TodayTotal), d.OverallStreak, d.Consistency, d.FreezeCrystals, signed(d.BonusPoints),
		d.Achievements, d.AchievementsMax)

	if len(d.Streaks) > 0 {
		fmt.Fprintln(s.out)
		w := newTable(s.out)
		fmt.Fprintln(w, "TASK\tSTREAK\tBEST\tTODAY\tNEXT")
		for _, st := range d.Streaks {
			today := dim.Sprint("·")
			if st.LoggedToday {
				today = good.Sprint("✓")
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", st.TaskName, st.Current, st.Longest, today, milestoneLabel(st.NextMilestone))
		}
		w.Flush()
	}

	if len(d.Goals) > 0 {
		fmt.Fprintln(s.out)
		w := newTable(s.out)
		fmt.Fprintln(w, "GOAL\tPERIOD\tPROGRESS\t")
		names, _ := taskNames(s)
		for _, g := range d.Goals {
			mark := good.Sprint("on track")
			if !g.OnTrack {
				mark = warn.Sprint("behind")
			}
			fmt.Fprintf(w, "%s\t%s\t%s / %s (%.0f%%)\t%s\n", taskLabel(names, g.TaskID), g.PeriodLabel, num(g.Actual), num(g.Target), g.Percentage, mark)
		}
		w.Flush()
	}

	if len(d.PendingPacts) > 0 {
		fmt.Fprintln(s.out)
		for _, p := range d.PendingPacts {
			fmt.Fprintf(s.out, "☐ %s (due %s)\n", p.Text, dateOrDash(p.DueDate))
		}
	}
	for _, b := range d.OpenBreaches {
		bad.Fprintf(s.out, "⚠ breach %s: -%s. Resolve with `lifequest pact dare|decline|freeze %s`\n", b.ID, num(b.Penalty), b.ID)
	}
	return nil
}

func milestoneLabel(days int) string {
	if days == 0 {
		return "-"
	}
	return fmt.Sprintf("%dd", days)
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show every task's streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		streaks, err := s.svc.Streaks(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, streaks)
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "TASK\tKIND\tCURRENT\tLONGEST\tCONSISTENCY\tDARK")
		for _, st := range streaks {
			kind := "days"
			if st.Weekly {
				kind = "weeks"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d%%\t%v\n", st.TaskName, kind, st.Current, st.Longest, st.Consistency, st.DarkStreak)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the bonus XP ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.svc.XPHistory(s.ctx, s.user, historyLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(s.out, "No bonus activity yet.")
			return nil
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "WHEN\tSOURCE\tAMOUNT\tBALANCE\tREF")
		for _, e := range entries {
			amount := signed(e.Amount)
			if e.Amount < 0 {
				amount = bad.Sprint(amount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", humanize.Time(e.Timestamp), e.Source, amount, num(e.Balance), e.Ref)
		}
		return w.Flush()
	},
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if achCheck {
			o, err := s.svc.CheckAchievements(s.ctx, s.user)
			if err != nil {
				return err
			}
			if !flagJSON {
				printOutcome(s.out, o)
			}
		}

		list, err := s.svc.Achievements(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, list)
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "\tNAME\tCATEGORY\tREWARD")
		for _, a := range list {
			mark := dim.Sprint("○")
			name := dim.Sprint(a.Name)
			if a.Unlocked {
				mark = good.Sprint("●")
				name = a.Icon + " " + a.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, name, a.Category, num(a.RewardXP))
		}
		return w.Flush()
	},
}

var bonusCmd = &cobra.Command{
	Use:   "bonus <amount> [reason]",
	Short: "Manually adjust bonus XP",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseValue(args[0])
		if err != nil {
			return err
		}
		reason := ""
		if len(args) > 1 {
			reason = args[1]
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		o, err := s.svc.AdjustBonus(s.ctx, s.user, amount, reason)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, o)
		}
		fmt.Fprintf(s.out, "Bonus %s\n", signed(amount))
		printOutcome(s.out, o)
		return nil
	},
}
