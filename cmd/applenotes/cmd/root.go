package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"applenotes/internal/adapters/console"
	"applenotes/internal/adapters/markdown"
	"applenotes/internal/adapters/sqlite"
	"applenotes/internal/adapters/vault"
	"applenotes/internal/config"
	"applenotes/internal/importer"
	"applenotes/internal/noteproto"
)

var (
	outputPath         string
	dataPath           string
	includeTrash       bool
	includeHandwriting bool
	keepFirstLine      bool
	verbose            bool
)

var rootCmd = &cobra.Command{
	Use:   "applenotes",
	Short: "Export Apple Notes to a markdown vault",
	Long: `applenotes reads the Apple Notes database and exports every account,
folder, and note into a plain markdown hierarchy, carrying attachments
and timestamps along.

The live database is never modified: a read-only clone is taken first.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", config.OutputPath(), "export destination")
	rootCmd.Flags().StringVar(&dataPath, "data", config.DataPath(), "notes group container to read from")
	rootCmd.Flags().BoolVar(&includeTrash, "include-trash", false, "export recently deleted notes too")
	rootCmd.Flags().BoolVar(&includeHandwriting, "include-handwriting", false, "append recognized text under drawings")
	rootCmd.Flags().BoolVar(&keepFirstLine, "keep-first-line", false, "keep the title line inside note bodies")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runImport() error {
	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer logger.Sync()

	registry, err := noteproto.NewRegistry()
	if err != nil {
		return err
	}

	out, err := vault.New(outputPath)
	if err != nil {
		return fmt.Errorf("please select a usable export location: %w", err)
	}

	store, err := sqlite.Open(dataPath, logger)
	if err != nil {
		return fmt.Errorf("cannot access the notes database: %w", err)
	}

	factory := markdown.Factory{
		OmitFirstLine:      !keepFirstLine,
		IncludeHandwriting: includeHandwriting,
	}

	engine := importer.New(store, out, console.New(), registry, factory, logger)
	engine.ImportTrashed = includeTrash
	engine.IncludeHandwriting = includeHandwriting

	if err := engine.Import(); err != nil {
		return err
	}

	fmt.Println("import completed successfully")
	return nil
}
