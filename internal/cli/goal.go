package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/app/tracker"
)

var highGoalFlags struct {
	task   string
	target float64
	start  string
	end    string
}

func init() {
	f := goalHighAddCmd.Flags()
	f.StringVarP(&highGoalFlags.task, "task", "t", "", "Task whose records count (empty for all)")
	f.Float64Var(&highGoalFlags.target, "target", 0, "Cumulative target value")
	f.StringVar(&highGoalFlags.start, "start", "today", "First day of the window")
	f.StringVar(&highGoalFlags.end, "end", "", "Last day of the window")
	_ = goalHighAddCmd.MarkFlagRequired("target")
	_ = goalHighAddCmd.MarkFlagRequired("end")

	goalHighCmd.AddCommand(goalHighAddCmd, goalHighRmCmd)
	goalCmd.AddCommand(goalEvalCmd, goalHighCmd)
	rootCmd.AddCommand(goalCmd)
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Show progress on current goal periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		progress, err := s.svc.GoalProgress(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, progress)
		}
		if len(progress) == 0 {
			fmt.Fprintln(s.out, "No goals set. Add one with: lifequest task edit <task> --goal N --interval weekly")
			return nil
		}

		names, err := taskNames(s)
		if err != nil {
			return err
		}
		w := newTable(s.out)
		fmt.Fprintln(w, "TASK\tTYPE\tPERIOD\tACTUAL\tTARGET\t%\t")
		for _, p := range progress {
			mark := good.Sprint("on track")
			if !p.OnTrack {
				mark = warn.Sprint("behind")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f\t%s\n",
				taskLabel(names, p.TaskID), p.GoalType, p.PeriodLabel, num(p.Actual), num(p.Target), p.Percentage, mark)
		}
		return w.Flush()
	},
}

var goalEvalCmd = &cobra.Command{
	Use:   "eval [task]",
	Short: "Settle goal periods and pay completion bonuses",
	Long: `Evaluate goals for the period containing today. Each (task, period)
pays its bonus at most once; re-running reports the settled result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var evals []engagement.GoalEvaluation
		if len(args) == 1 {
			task, err := s.task(args[0])
			if err != nil {
				return err
			}
			ev, err := s.svc.EvaluateGoal(s.ctx, s.user, task.ID)
			if err != nil {
				return err
			}
			if ev == nil {
				return fmt.Errorf("task %s has no goal", task.Name)
			}
			evals = append(evals, *ev)
		} else {
			if evals, err = s.svc.EvaluateAllGoals(s.ctx, s.user); err != nil {
				return err
			}
		}
		if flagJSON {
			return printJSON(s.out, evals)
		}

		names, err := taskNames(s)
		if err != nil {
			return err
		}
		for _, ev := range evals {
			verdict := bad.Sprint("missed")
			if ev.MetGoal {
				verdict = good.Sprint("met")
			}
			line := fmt.Sprintf("%s %s: %s (%s / %s)", taskLabel(names, ev.TaskID), ev.PeriodLabel, verdict, num(ev.ActualValue), num(ev.GoalValue))
			switch {
			case ev.AlreadyEvaluated:
				line += dim.Sprint(" already settled")
			case ev.BonusAwarded > 0:
				line += " " + good.Sprint(signed(ev.BonusAwarded))
			}
			fmt.Fprintln(s.out, line)
		}
		return nil
	},
}

var goalHighCmd = &cobra.Command{
	Use:   "high",
	Short: "List high goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		goals, err := s.svc.HighGoals(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, goals)
		}
		if len(goals) == 0 {
			fmt.Fprintln(s.out, "No high goals.")
			return nil
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "ID\tNAME\tWINDOW\tPROGRESS\tLEFT\tSTATUS")
		for _, g := range goals {
			fmt.Fprintf(w, "%s\t%s\t%s..%s\t%s / %s (%.0f%%)\t%dd\t%s\n",
				g.Goal.ID, g.Goal.Name, g.Goal.StartDate, g.Goal.EndDate,
				num(g.Actual), num(g.Goal.TargetValue), g.Percentage, g.DaysRemaining, highGoalStatus(g.Status))
		}
		return w.Flush()
	},
}

func highGoalStatus(st engagement.HighGoalStatus) string {
	switch st {
	case engagement.HighGoalCompleted:
		return good.Sprint(st)
	case engagement.HighGoalExpired:
		return bad.Sprint(st)
	default:
		return string(st)
	}
}

var goalHighAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a high goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		today := s.svc.Today()
		in := tracker.HighGoalInput{Name: args[0], TargetValue: highGoalFlags.target}
		if in.TaskID, err = s.taskID(highGoalFlags.task); err != nil {
			return err
		}
		if in.StartDate, err = parseDateArg(highGoalFlags.start, today); err != nil {
			return err
		}
		if in.EndDate, err = parseEndArg(highGoalFlags.end, today); err != nil {
			return err
		}

		goal, err := s.svc.CreateHighGoal(s.ctx, s.user, in)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, goal)
		}
		fmt.Fprintf(s.out, "Created high goal %s (%s)\n", goal.Name, goal.ID)
		return nil
	},
}

var goalHighRmCmd = &cobra.Command{
	Use:   "rm <goal-id>",
	Short: "Delete a high goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.DeleteHighGoal(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted high goal %s\n", args[0])
		return nil
	},
}
