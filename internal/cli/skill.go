package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	skillCmd.AddCommand(skillUnlockCmd)
	rootCmd.AddCommand(skillCmd)
}

var skillCmd = &cobra.Command{
	Use:   "skill <task>",
	Short: "Show a task's constellation",
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
		view, err := s.svc.Constellation(s.ctx, s.user, task.ID)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, view)
		}

		fmt.Fprintf(s.out, "%s constellation │ lifetime %s │ spent %s │ available %s\n",
			view.TaskName, num(view.LifetimeValue), num(view.SpentPoints), num(view.AvailablePoints))
		for _, n := range view.Nodes {
			switch {
			case n.Unlocked:
				good.Fprintf(s.out, "  ★ %-10s %6s\n", n.Name, num(n.Cost))
			case n.Available:
				fmt.Fprintf(s.out, "  ☆ %-10s %6s  ready\n", n.Name, num(n.Cost))
			default:
				dim.Fprintf(s.out, "  · %-10s %6s\n", n.Name, num(n.Cost))
			}
		}
		return nil
	},
}

var skillUnlockCmd = &cobra.Command{
	Use:   "unlock <task> <node>",
	Short: "Spend skill points on a constellation node",
	Long:  `Nodes unlock in order: spark, ember, flare, nova, supernova.`,
	Args:  cobra.ExactArgs(2),
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
		res, err := s.svc.UnlockNode(s.ctx, s.user, task.ID, args[1])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, res)
		}
		if res.Unlocked {
			fmt.Fprintf(s.out, "Unlocked %s on %s (%s points left)\n", args[1], task.Name, num(res.AvailablePoints))
			printOutcome(s.out, res.Outcome)
		} else {
			fmt.Fprintf(s.out, "%s is already unlocked on %s\n", args[1], task.Name)
		}
		return nil
	},
}
