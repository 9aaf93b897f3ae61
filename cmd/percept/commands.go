package main

import (
	"github.com/spf13/cobra"

	"github.com/perceptlab/percept/internal/config"
)

// --- Global Command Variables ---
var (
	waveNames      []string
	tagFilter      string
	targetPatterns []string
	rulesPath      string
	concurrency    int
	jsonOutput     bool
	noDetect       bool
	resolveTargets []string

	rootCmd = &cobra.Command{
		Use:   "percept",
		Short: "Analyze images into signal profiles and check them for contradictions",
		Long: `Percept runs a pipeline of analysis waves against image files, collects
their confidence-scored signals into a profile, and checks the profile
for logical contradictions.

Without API keys the remote waves run against a mock model client, so
the local pixel waves and the detector work out of the box.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = config.Load()
		},
	}

	// --- Analysis ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze [image...]",
		Short: "Run the wave pipeline against one or more images",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAnalyze, // Defined in cmd_analyze.go
	}

	// --- Catalogs ---
	wavesCmd = &cobra.Command{
		Use:   "waves",
		Short: "List the wave catalog, or resolve which waves produce given signals",
		Run:   runWaves, // Defined in cmd_catalog.go
	}

	orphansCmd = &cobra.Command{
		Use:   "orphans",
		Short: "List required signal patterns that no wave emits",
		Run:   runOrphans, // Defined in cmd_catalog.go
	}

	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List the contradiction rule catalog",
		Run:   runRules, // Defined in cmd_catalog.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion, // Defined in cmd_catalog.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&waveNames, "waves", nil,
		"Only run these waves (comma separated names, e.g. format,color)")
	analyzeCmd.Flags().StringVar(&tagFilter, "tag", "",
		"Only run waves carrying this tag (e.g. 'local' to stay offline)")
	analyzeCmd.Flags().StringSliceVar(&targetPatterns, "targets", nil,
		"Run only the waves needed to produce these signal patterns (e.g. 'color.*,ocr.text')")
	analyzeCmd.Flags().StringVar(&rulesPath, "rules", "",
		"YAML rule catalog merged over the built-in rules")
	analyzeCmd.Flags().IntVar(&concurrency, "concurrency", 4,
		"Number of images analyzed in parallel")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Emit reports as JSON instead of tables")
	analyzeCmd.Flags().BoolVar(&noDetect, "no-detect", false,
		"Skip contradiction detection")

	rootCmd.AddCommand(wavesCmd)
	wavesCmd.Flags().StringSliceVar(&resolveTargets, "target", nil,
		"Signal patterns to resolve into a wave set instead of listing the catalog")

	rootCmd.AddCommand(orphansCmd)

	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesPath, "rules", "",
		"YAML rule catalog merged over the built-in rules")

	rootCmd.AddCommand(versionCmd)
}
