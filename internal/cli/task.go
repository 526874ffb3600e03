package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/app"
	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
)

var taskFlags struct {
	color      string
	unit       string
	customUnit string
	dark       bool
	weekly     int
	goal       float64
	interval   string
	goalType   string
	bonusPct   float64
	intensity  []float64
}

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		f := c.Flags()
		f.StringVar(&taskFlags.color, "color", "", "Hex colour, e.g. #4f9d69")
		f.StringVar(&taskFlags.unit, "unit", "", "Unit (minutes, km, pages, ... or custom)")
		f.StringVar(&taskFlags.customUnit, "custom-unit", "", "Name of a custom unit")
		f.BoolVar(&taskFlags.dark, "dark", false, "Enable dark streak penalties")
		f.IntVar(&taskFlags.weekly, "weekly", 0, "Weekly streak: required days per week (0 for daily)")
		f.Float64Var(&taskFlags.goal, "goal", 0, "Goal target value")
		f.StringVar(&taskFlags.interval, "interval", "", "Goal interval: daily, weekly or monthly")
		f.StringVar(&taskFlags.goalType, "goal-type", "", "at_least or no_more_than")
		f.Float64Var(&taskFlags.bonusPct, "bonus", 0, "Goal completion bonus in percent of the target")
		f.Float64SliceVar(&taskFlags.intensity, "intensity", nil, "Four ascending heatmap thresholds")
	}
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskEditCmd, taskRmCmd, taskImportCmd)
	rootCmd.AddCommand(taskCmd)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a task",
	Long: `Create a task. Examples:
  lifequest task add Running --unit km --goal 20 --interval weekly --bonus 10
  lifequest task add Meditation --dark --color "#7e57c2"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		in := tracker.TaskInput{Name: args[0]}
		applyTaskFlags(cmd, &in)
		task, err := s.svc.CreateTask(s.ctx, s.user, in)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, task)
		}
		fmt.Fprintf(s.out, "Created task %s (%s)\n", task.Name, task.ID)
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Change a task's settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		task, err := s.task(args[0])
		if err != nil {
			return err
		}
		in := tracker.TaskInputFrom(task)
		applyTaskFlags(cmd, &in)
		task, err = s.svc.UpdateTask(s.ctx, s.user, task.ID, in)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, task)
		}
		fmt.Fprintf(s.out, "Updated task %s\n", task.Name)
		return nil
	},
}

// applyTaskFlags copies the flags the user set onto in.
func applyTaskFlags(cmd *cobra.Command, in *tracker.TaskInput) {
	f := cmd.Flags()
	if f.Changed("color") {
		in.Color = taskFlags.color
	}
	if f.Changed("unit") {
		in.Unit = taskFlags.unit
	}
	if f.Changed("custom-unit") {
		in.CustomUnitName = taskFlags.customUnit
	}
	if f.Changed("dark") {
		in.DarkStreakEnabled = taskFlags.dark
	}
	if f.Changed("weekly") {
		if taskFlags.weekly > 0 {
			in.FrequencyType = domain.FrequencyWeekly
			in.FrequencyCount = taskFlags.weekly
		} else {
			in.FrequencyType = domain.FrequencyDaily
			in.FrequencyCount = 0
		}
	}
	if v := optFloat(cmd, "goal", taskFlags.goal); v != nil {
		in.GoalValue = v
	}
	if f.Changed("interval") {
		in.GoalInterval = domain.GoalInterval(strings.ToLower(taskFlags.interval))
	}
	if f.Changed("goal-type") {
		in.GoalType = domain.GoalType(strings.ToLower(taskFlags.goalType))
	}
	if v := optFloat(cmd, "bonus", taskFlags.bonusPct); v != nil {
		in.GoalCompletionBonusPercentage = v
	}
	if f.Changed("intensity") {
		in.IntensityThresholds = taskFlags.intensity
	}
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		tasks, err := s.svc.ListTasks(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(s.out, "No tasks yet. Create one with: lifequest task add <name>")
			return nil
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "ID\tNAME\tUNIT\tSTREAK\tGOAL\tDARK")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n", t.ID, t.Name, unitLabel(t), frequencyLabel(t), goalLabel(t), t.DarkStreakEnabled)
		}
		return w.Flush()
	},
}

func unitLabel(t domain.TaskDefinition) string {
	if t.CustomUnitName != "" {
		return t.CustomUnitName
	}
	if t.Unit == "" {
		return "-"
	}
	return t.Unit
}

func frequencyLabel(t domain.TaskDefinition) string {
	if t.IsWeekly() {
		return fmt.Sprintf("%dx/week", t.WeeklyTarget())
	}
	return "daily"
}

func goalLabel(t domain.TaskDefinition) string {
	g := t.Goal()
	if !g.IsSet() {
		return "-"
	}
	op := "≥"
	if g.Kind == domain.GoalNoMoreThan {
		op = "≤"
	}
	return fmt.Sprintf("%s %s/%s", op, num(g.Target), g.Interval)
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task>",
	Short: "Delete a task (its records become unassigned)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		task, err := s.task(args[0])
		if err != nil {
			return err
		}
		if err := s.svc.DeleteTask(s.ctx, s.user, task.ID); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted task %s\n", task.Name)
		return nil
	},
}

var taskImportCmd = &cobra.Command{
	Use:   "import <Questfile>",
	Short: "Create tasks and pacts from a Questfile",
	Long: `Import a Questfile. Example:

  TASK Running
    UNIT km
    GOAL 20 weekly at_least 10
  PACT "Sign up for the half marathon"
    DUE +7
    PENALTY 100

Tasks whose name already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		qf, err := app.ParseQuestfile(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		report, err := app.ImportQuestfile(s.ctx, s.svc, s.user, qf)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, report)
		}
		fmt.Fprintf(s.out, "Imported %d tasks (%d skipped) and %d pacts\n",
			len(report.TasksCreated), len(report.TasksSkipped), report.PactsCreated)
		return nil
	},
}
