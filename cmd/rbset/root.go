package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:   "rbset",
		Short: "red-black tree ordered set driver",
		Long:  "Drive the red-black tree ordered set: print the balancing of a sequence, or soak it by random trials.",

		// SilenceUsage is an option to silence usage when an error occurs.
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, cmd, cfg)
		},
	}

	// A flag can be 'persistent' meaning that this flag will be available to
	// the command it's assigned to as well as every command under that command.
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-encoder", "plaintext", "log encoder: json or plaintext")
	rootCmd.PersistentFlags().String("metrics", "none", "metrics exporter: none, console or prometheus")
	rootCmd.PersistentFlags().String("metrics-addr", ":9527", "prometheus metrics listen address")
	rootCmd.PersistentFlags().Duration("metrics-interval", 10*time.Second, "console metrics export interval")

	rootCmd.AddCommand(newDemoCmd(cfg), newSoakCmd(cfg))
	return rootCmd
}

func newDemoCmd(cfg *Config) *cobra.Command {
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "insert then delete a sequence, printing the tree after each step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), cfg, newDemoRunner)
		},
	}
	demoCmd.Flags().IntSlice("values", defaultDemoValues, "keys to insert in order")
	demoCmd.Flags().IntSlice("deletes", defaultDemoDeletes, "keys to delete in order")
	demoCmd.Flags().Bool("shuffle", false, "shuffle the insert order")
	demoCmd.Flags().Bool("desc", false, "order the set descending")
	return demoCmd
}

func newSoakCmd(cfg *Config) *cobra.Command {
	soakCmd := &cobra.Command{
		Use:   "soak",
		Short: "run random insert and remove trials concurrently, validating the invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), cfg, newSoakRunner)
		},
	}
	soakCmd.Flags().Int("workers", 4, "worker pool size")
	soakCmd.Flags().Int("trials", 16, "number of independent trials")
	soakCmd.Flags().Int("size", 10_000, "keys per trial")
	soakCmd.Flags().Int("validate-every", 1000, "validate every n mutations, 0 validates at the end of each phase only")
	soakCmd.Flags().Uint64("seed", 0, "random seed, 0 picks one")
	return soakCmd
}
