package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ombot",
	Short: "GitHub comment bot that opens pull requests on command",
	Long: `ombot listens for GitHub issue comments that mention the bot with a
create-pr command and opens the requested pull request, reporting the
result back on the issue.

Command format:

  @om-bot create-pr <source-branch> <target-branch> "<PR title>"`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
