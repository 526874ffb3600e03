package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
)

var pactFlags struct {
	due     string
	penalty float64
	all     bool
}

func init() {
	pactAddCmd.Flags().StringVar(&pactFlags.due, "due", "", "Due day (YYYY-MM-DD, today, +N)")
	pactAddCmd.Flags().Float64Var(&pactFlags.penalty, "penalty", 0, "XP deducted if the pact is breached")
	pactBreachesCmd.Flags().BoolVarP(&pactFlags.all, "all", "a", false, "Include resolved breaches")

	pactCmd.AddCommand(pactAddCmd, pactDoneCmd, pactRmCmd, pactSweepCmd,
		pactBreachesCmd, pactDareCmd, pactDeclineCmd, pactFreezeCmd)
	rootCmd.AddCommand(pactCmd)
}

var pactCmd = &cobra.Command{
	Use:   "pact",
	Short: "List pacts",
	Long: `Pacts are promises with a due day and an optional penalty. A pact not
honored by its due day is breached on the next sweep; a breach can then be
answered with a dare, declined for an extra penalty, or frozen with a crystal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		pacts, err := s.svc.Pacts(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, pacts)
		}
		if len(pacts) == 0 {
			fmt.Fprintln(s.out, "No pacts. Make one with: lifequest pact add <text> --due +7 --penalty 50")
			return nil
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "ID\tTEXT\tDUE\tPENALTY\tSTATUS")
		for _, p := range pacts {
			text := p.Text
			if p.IsDare {
				text = "[dare] " + text
			}
			penalty := "-"
			if p.Penalty != nil {
				penalty = num(*p.Penalty)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, text, dateOrDash(p.DueDate), penalty, pactStatus(p.Status))
		}
		return w.Flush()
	},
}

var pactAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Make a pact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		in := tracker.PactInput{Text: args[0], Penalty: optFloat(cmd, "penalty", pactFlags.penalty)}
		if pactFlags.due != "" {
			due, err := parseEndArg(pactFlags.due, s.svc.Today())
			if err != nil {
				return err
			}
			in.DueDate = &due
		}

		pact, err := s.svc.CreatePact(s.ctx, s.user, in)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, pact)
		}
		fmt.Fprintf(s.out, "Pact %s made (due %s)\n", pact.ID, dateOrDash(pact.DueDate))
		return nil
	},
}

var pactDoneCmd = &cobra.Command{
	Use:   "done <pact-id>",
	Short: "Toggle a pact's completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		pact, err := s.svc.TogglePact(s.ctx, s.user, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, pact)
		}
		if pact.Completed {
			good.Fprintf(s.out, "Honored: %s\n", pact.Text)
		} else {
			fmt.Fprintf(s.out, "Reopened: %s\n", pact.Text)
		}
		return nil
	},
}

var pactRmCmd = &cobra.Command{
	Use:   "rm <pact-id>",
	Short: "Delete a pact (only on the day it was made)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.DeletePact(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted pact %s\n", args[0])
		return nil
	},
}

var pactSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Apply penalties for overdue pacts and broken dark streaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.svc.Sweep(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, res)
		}
		if len(res.Breaches) == 0 {
			fmt.Fprintln(s.out, "Nothing breached.")
			return nil
		}
		for _, b := range res.Breaches {
			bad.Fprintf(s.out, "Breach %s (%s): -%s\n", b.ID, b.Kind, num(b.Penalty))
		}
		fmt.Fprintf(s.out, "Deducted %s\n", num(res.Deducted))
		if res.LevelDrop {
			bad.Fprintln(s.out, "You lost a level.")
		}
		return nil
	},
}

var pactBreachesCmd = &cobra.Command{
	Use:   "breaches",
	Short: "List breaches awaiting a response",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		breaches, err := s.svc.Breaches(s.ctx, s.user, !pactFlags.all)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, breaches)
		}
		if len(breaches) == 0 {
			fmt.Fprintln(s.out, "No breaches.")
			return nil
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "ID\tKIND\tDATE\tPENALTY\tSTATE")
		for _, b := range breaches {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Kind, b.Date, num(b.Penalty+b.ExtraPenalty), b.State)
		}
		return w.Flush()
	},
}

var pactDareCmd = &cobra.Command{
	Use:   "dare <breach-id> <text>",
	Short: "Answer a breach with a dare",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		dare, err := s.svc.AcceptDare(s.ctx, s.user, args[0], args[1])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, dare)
		}
		fmt.Fprintf(s.out, "Dare %s accepted, due %s\n", dare.ID, dateOrDash(dare.DueDate))
		return nil
	},
}

var pactDeclineCmd = &cobra.Command{
	Use:   "decline <breach-id>",
	Short: "Decline the dare and take an extra penalty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		extra, err := s.svc.DeclineDare(s.ctx, s.user, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, map[string]float64{"extra_penalty": extra})
		}
		bad.Fprintf(s.out, "Declined: -%s\n", num(extra))
		return nil
	},
}

var pactFreezeCmd = &cobra.Command{
	Use:   "freeze <breach-id>",
	Short: "Spend a freeze crystal to cancel a breach",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ok, err := s.svc.FreezeBreach(s.ctx, s.user, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, map[string]bool{"frozen": ok})
		}
		if !ok {
			return errors.New("no freeze crystal left")
		}
		good.Fprintf(s.out, "Breach %s frozen, penalty refunded\n", args[0])
		return nil
	},
}
