package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// CLI flags shared by every command.
type cliFlags struct {
	ProjectRoot string
	Verbose     bool
	LogJSON     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return execute(args, os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) error {
	root := rootCmd(stdout, stderr)
	root.SetArgs(args)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &cliFlags{}
	root := &cobra.Command{
		Use:           "termex",
		Short:         "Extract noun-phrase terms from dependency parses",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ProjectRoot, "project-root", ".", "directory holding termex.yml")
	pf.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "log as JSON")

	root.AddCommand(
		extractCmd(flags),
		showCmd(flags),
		exportCmd(flags),
		serveMCPCmd(flags),
		initCmd(flags),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the termex version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "termex %s\n", version)
		},
	}
}
