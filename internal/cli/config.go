package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/daemon"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd, levelsCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create config.toml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		if flagUser != "" {
			cfg.User.ID = flagUser
		}
		out := cmd.OutOrStdout()
		if flagJSON {
			return printJSON(out, cfg)
		}
		return toml.NewEncoder(out).Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := daemon.ConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := daemon.SaveConfig(daemon.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), daemon.ConfigPath())
		return nil
	},
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the tier table and level thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		table := s.svc.Levels()
		if flagJSON {
			return printJSON(s.out, map[string]any{
				"tiers":      table.Tiers(),
				"thresholds": table.Thresholds(),
			})
		}

		w := newTable(s.out)
		fmt.Fprintln(w, "TIER\tLEVELS\tFROM XP\tENTRY BONUS")
		for _, t := range table.Tiers() {
			from := table.XPForLevel(t.MinLevel)
			fmt.Fprintf(w, "%s\t%d-%d\t%s\t%s\n", tierColor(t.Group).Sprint(t.Icon+" "+t.Name), t.MinLevel, t.MaxLevel, num(float64(from)), num(t.EntryBonus))
		}
		return w.Flush()
	},
}
