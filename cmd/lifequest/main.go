// Command lifequest is the LifeQuest habit tracker.
package main

import "github.com/levelup-labs/lifequest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
