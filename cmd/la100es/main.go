package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// flags shared by every subcommand.
type globalFlags struct {
	logLevel string
	pretty   bool
	progress bool
	seed     uint64
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:          "la100es",
		Short:        "Residential electrical panel capacity inference",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides log.level)")
	rootCmd.PersistentFlags().BoolVar(&g.pretty, "pretty", false, "human-readable logs on stderr")
	rootCmd.PersistentFlags().BoolVar(&g.progress, "progress", false, "draw progress bars while loading inputs")
	rootCmd.PersistentFlags().Uint64Var(&g.seed, "seed", 0, "random seed (overrides seed)")

	rootCmd.AddCommand(runCmd(&g))
	rootCmd.AddCommand(validateCmd(&g))
	rootCmd.AddCommand(summaryCmd(&g))
	rootCmd.AddCommand(serveCmd(&g))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [project-path]",
		Short: "Run the inference pipeline and print the enriched dataset as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args[0], g)
		},
	}
}

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Check the analysis definition and input data without running inference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args[0], g)
		},
	}
}

func summaryCmd(g *globalFlags) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "summary [project-path]",
		Short: "Run the pipeline and print cohort and area tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), args[0], g, top)
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 20, "number of areas to list, largest first")
	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Run the pipeline once and serve the results over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], g, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides server.port)")
	return cmd
}
