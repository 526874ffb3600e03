package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	friendCmd.AddCommand(friendAddCmd, friendRmCmd, nameCmd)
	rootCmd.AddCommand(friendCmd)
}

var friendCmd = &cobra.Command{
	Use:   "friend",
	Short: "Leaderboard against the users you follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		board, err := s.svc.CompareFriends(s.ctx, s.user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(s.out, board)
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "#\tUSER\tLEVEL\tTIER\tXP\tBEST STREAK")
		for _, e := range board {
			name := e.DisplayName
			if name == "" {
				name = e.UserID
			}
			if e.IsSelf {
				name = good.Sprint(name + " (you)")
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%d\n", e.Rank, name, e.Level, e.TierName, num(e.TotalExperience), e.BestStreak)
		}
		return w.Flush()
	},
}

var friendAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Follow another user on this store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.AddFriend(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Now following %s\n", args[0])
		return nil
	},
}

var friendRmCmd = &cobra.Command{
	Use:   "rm <user-id>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.RemoveFriend(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Unfollowed %s\n", args[0])
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <display-name>",
	Short: "Set the name friends see",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.SetDisplayName(s.ctx, s.user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Display name set to %q\n", args[0])
		return nil
	},
}
