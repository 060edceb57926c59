// Package cli implements the partitiondb command-line interface.
// Built with github.com/spf13/cobra following the teacher's
// internal/cli/root.go conventions: a root command with persistent
// flags, subcommands registered in init(), errors left to the engine's
// own wrapping rather than cobra's usage text.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	baseDir   string
	cacheSize int
	verbose   bool
	dryRun    bool
)

// rootCmd is the base command for partitiondb.
var rootCmd = &cobra.Command{
	Use:   "partitiondb",
	Short: "Embedded, file-backed key-value store with bitemporal milestoning",
	Long: `partitiondb is an embedded, file-backed key-value store.

It provides:
  - Unitemporal versioning: every write creates a new immutable version
  - Bitemporal milestoning: valid-time intervals, re-milestoned on write
  - Secondary indices and cross-partition joins
  - A JSON-per-key on-disk layout, safe to inspect by hand

Assumes a single writer per partition directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", defaultBaseDir(), "base directory holding partition subdirectories")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", -1, "per-partition LRU cache capacity (-1 uses the registry default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what a mutating command would do without doing it")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(backupCmd)
}

// initCmd initializes a base directory for partitiondb to use, the way
// the teacher's own initCmd/RunInit pair initializes a CloudFS
// repository (internal/cli/root.go, internal/cli/engine.go).
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a partitiondb base directory",
	Long:  `Initialize the base directory partitions are created under. Defaults to --base-dir when no path is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return RunInit(path)
	},
}

// defaultBaseDir resolves PARTITIONDB_HOME, falling back to
// ~/.partitiondb, mirroring the teacher's getConfigDir().
func defaultBaseDir() string {
	if v := os.Getenv("PARTITIONDB_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".partitiondb"
	}
	return filepath.Join(home, ".partitiondb")
}
