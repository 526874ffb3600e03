// Package cli implements the LifeQuest command-line interface using Cobra.
// Commands open the local store directly; `serve` exposes the same service
// over HTTP.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagUser string
	flagJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "lifequest",
	Short: "LifeQuest: turn your habits into levels",
	Long: `LifeQuest is a local-first habit tracker with an RPG progression layer.
Log values against tasks, keep streaks alive, hit goals, unlock
constellations and settle pacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User to act on (overrides config and LIFEQUEST_USER)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print machine-readable JSON")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
