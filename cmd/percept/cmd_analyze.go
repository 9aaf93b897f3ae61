package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/perceptlab/percept/internal/config"
	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/llm"
	"github.com/perceptlab/percept/internal/service"
	"github.com/perceptlab/percept/internal/waves"
)

func runAnalyze(cmd *cobra.Command, args []string) {
	svc := newAnalysisService()

	opts := service.AnalyzeOptions{
		WaveNames: waveNames,
		Tag:       tagFilter,
		Targets:   targetPatterns,
		Detect:    !noDetect,
	}

	if concurrency < 1 {
		concurrency = 1
	}

	reports := make([]*service.AnalysisReport, len(args))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			report, err := svc.Analyze(ctx, path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if jsonOutput {
		printJSON(reports)
		return
	}
	for i, report := range reports {
		if i > 0 {
			fmt.Println()
		}
		printReport(args[i], report)
	}
}

// newAnalysisService wires the pipeline for one-shot CLI use: no stores, no
// embeddings, and a mock model client unless the environment configures a
// real provider with a key.
func newAnalysisService() *service.AnalysisService {
	logger := zap.NewNop()

	provider := config.VisionProvider()
	if provider != llm.ProviderMock && config.VisionAPIKey() == "" {
		fmt.Fprintf(os.Stderr, "No API key for provider %q, remote waves will use the mock model client\n", provider)
		provider = llm.ProviderMock
	}
	client, err := llm.NewClient(provider, config.VisionAPIKey())
	if err != nil {
		log.Fatalf("Failed to build model client: %v", err)
	}

	registry := service.NewRegistry(waves.DefaultManifests())
	detector := newDetector(logger)

	return service.NewAnalysisService(
		waves.DefaultWaves(client, client, logger),
		registry, detector, nil, nil, nil, logger)
}

// newDetector seeds the default rules and applies the --rules catalog on
// top, the same merge the server does for PERCEPT_RULES_FILE.
func newDetector(logger *zap.Logger) *service.Detector {
	detector := service.NewDetector(logger)

	path := rulesPath
	if path == "" {
		path = config.RulesFile()
	}
	if path == "" {
		return detector
	}

	rules, err := service.LoadRulesFile(path)
	if err != nil {
		log.Fatalf("Failed to load rules file: %v", err)
	}
	for _, rule := range rules {
		detector.AddRule(rule)
	}
	return detector
}

func printJSON(reports []*service.AnalysisReport) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	var err error
	if len(reports) == 1 {
		err = enc.Encode(reports[0])
	} else {
		err = enc.Encode(reports)
	}
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
}

func printReport(path string, report *service.AnalysisReport) {
	p := report.Profile
	fmt.Printf("%s\n", path)
	fmt.Printf("  profile %s: %d signals in %s\n", p.ID, p.SignalCount, p.Duration.Round(time.Millisecond))
	if p.Caption != "" {
		fmt.Printf("  caption: %s\n", p.Caption)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  KEY\tVALUE\tCONFIDENCE\tSOURCE")
	for _, s := range p.Signals {
		fmt.Fprintf(w, "  %s\t%s\t%.2f\t%s\n",
			s.Key, truncate(domain.StringValue(s.Value), 60), s.Confidence, s.Source)
	}
	w.Flush()

	if noDetect {
		return
	}
	if len(report.Contradictions) == 0 {
		fmt.Println("  no contradictions")
		return
	}
	fmt.Printf("  %d contradiction(s):\n", len(report.Contradictions))
	for _, c := range report.Contradictions {
		fmt.Printf("  [%s] %s: %s\n", c.Severity, c.Rule.ID, c.Explanation)
		fmt.Printf("      resolution: %s\n", c.Resolution)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
