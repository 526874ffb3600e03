package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
)

func init() {
	logCmd.Flags().StringVarP(&logTask, "task", "t", "", "Task name or ID")
	logCmd.Flags().StringVarP(&logDate, "date", "d", "today", "Day to log (YYYY-MM-DD, today, yesterday, -N)")
	logCmd.Flags().StringVarP(&logNotes, "notes", "n", "", "Free-text notes")
	rootCmd.AddCommand(logCmd)

	recordsCmd.Flags().StringVarP(&recTask, "task", "t", "", "Only records of this task")
	recordsCmd.Flags().StringVar(&recFrom, "from", "", "First day")
	recordsCmd.Flags().StringVar(&recTo, "to", "today", "Last day")
	recordsCmd.Flags().IntVar(&recLimit, "limit", 20, "Maximum rows (0 for all)")

	recordsEditCmd.Flags().Float64Var(&recValue, "value", 0, "New value")
	recordsEditCmd.Flags().StringVarP(&editTask, "task", "t", "", "Move to this task")
	recordsEditCmd.Flags().StringVarP(&editDate, "date", "d", "", "New day")
	recordsEditCmd.Flags().StringVarP(&editNotes, "notes", "n", "", "New notes")

	recordsCmd.AddCommand(recordsRmCmd, recordsEditCmd)
	rootCmd.AddCommand(recordsCmd)
}

var (
	logTask  string
	logDate  string
	logNotes string
	recFrom  string
	recTo    string
	recLimit int
	recValue float64
	recTask  string

	editTask  string
	editDate  string
	editNotes string
)

var logCmd = &cobra.Command{
	Use:   "log <value>",
	Short: "Log a value for a day",
	Long: `Log a value against a task. Examples:
  lifequest log 30 -t Running
  lifequest log 2 -t Reading -d yesterday -n "two chapters"`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	value, err := parseValue(args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	day, err := parseDateArg(logDate, s.svc.Today())
	if err != nil {
		return err
	}
	taskID, err := s.taskID(logTask)
	if err != nil {
		return err
	}

	res, err := s.svc.AddRecord(s.ctx, s.user, tracker.RecordInput{
		Date: day, Value: value, TaskType: taskID, Notes: logNotes,
	})
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(s.out, res)
	}

	fmt.Fprintf(s.out, "Logged %s on %s (%s)\n", num(value), day, res.Record.ID)
	printOutcome(s.out, res.Outcome)
	if info, err := s.svc.Level(s.ctx, s.user); err == nil {
		fmt.Fprintln(s.out, levelBar(info))
	}
	return nil
}

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"ls"},
	Short:   "List logged records",
	RunE:    runRecords,
}

func runRecords(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	filter := tracker.RecordFilter{Limit: recLimit}
	if filter.TaskID, err = s.taskID(recTask); err != nil {
		return err
	}
	if recFrom != "" {
		rng, err := parseRangeArgs(recFrom, recTo, 0, s.svc.Today())
		if err != nil {
			return err
		}
		filter.Range = &rng
	}

	records, err := s.svc.ListRecords(s.ctx, s.user, filter)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(s.out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(s.out, "No records yet. Log one with: lifequest log <value> -t <task>")
		return nil
	}

	names, err := taskNames(s)
	if err != nil {
		return err
	}
	w := newTable(s.out)
	fmt.Fprintln(w, "ID\tDATE\tTASK\tVALUE\tNOTES")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date, taskLabel(names, r.TaskType), num(r.Value), r.Notes)
	}
	return w.Flush()
}

var recordsRmCmd = &cobra.Command{
	Use:   "rm <record-id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.DeleteRecord(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted record %s\n", args[0])
		return nil
	},
}

var recordsEditCmd = &cobra.Command{
	Use:   "edit <record-id>",
	Short: "Change a record's value, day, task or notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordEdit,
}

func runRecordEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := s.svc.State(s.ctx, s.user)
	if err != nil {
		return err
	}
	var current *domain.RecordEntry
	for i := range state.Records {
		if state.Records[i].ID == args[0] {
			current = &state.Records[i]
		}
	}
	if current == nil {
		return domain.ErrRecordNotFound
	}

	in := tracker.RecordInput{Date: current.Date, Value: current.Value, TaskType: current.TaskType, Notes: current.Notes}
	flags := cmd.Flags()
	if flags.Changed("value") {
		in.Value = recValue
	}
	if flags.Changed("date") {
		if in.Date, err = parseDateArg(editDate, s.svc.Today()); err != nil {
			return err
		}
	}
	if flags.Changed("task") {
		if in.TaskType, err = s.taskID(editTask); err != nil {
			return err
		}
	}
	if flags.Changed("notes") {
		in.Notes = editNotes
	}

	res, err := s.svc.UpdateRecord(s.ctx, s.user, args[0], in)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(s.out, res)
	}
	fmt.Fprintf(s.out, "Updated record %s\n", res.Record.ID)
	printOutcome(s.out, res.Outcome)
	return nil
}

// taskNames maps task IDs to names for table output.
func taskNames(s *session) (map[string]string, error) {
	tasks, err := s.svc.ListTasks(s.ctx, s.user)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tasks))
	for _, t := range tasks {
		names[t.ID] = t.Name
	}
	return names, nil
}

func taskLabel(names map[string]string, id string) string {
	if id == "" {
		return dim.Sprint("-")
	}
	if n, ok := names[id]; ok {
		return n
	}
	return dim.Sprint(id)
}
