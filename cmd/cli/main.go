package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host      string
	batchName string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "chess-cli",
	Short: "A CLI to interact with the chess-club server",
	Long: `A command-line interface for making requests to the various endpoints
of the chess-club tournament server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVarP(&batchName, "batch", "b", "", "The batch to operate on")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log notifications and events instead of sending them")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
