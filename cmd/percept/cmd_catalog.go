package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/buildconfig"
	"github.com/perceptlab/percept/internal/service"
	"github.com/perceptlab/percept/internal/waves"
)

func runWaves(cmd *cobra.Command, args []string) {
	registry := service.NewRegistry(waves.DefaultManifests())

	if len(resolveTargets) > 0 {
		required := registry.GetRequiredWaves(resolveTargets)
		if len(required) == 0 {
			fmt.Printf("No waves emit %s\n", strings.Join(resolveTargets, ", "))
			return
		}
		fmt.Printf("Waves required for %s, in execution order:\n", strings.Join(resolveTargets, ", "))
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRIORITY\tNAME\tEMITS")
		for _, m := range required {
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.Priority, m.Name, strings.Join(m.Emits, ", "))
		}
		w.Flush()
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tNAME\tTAGS\tREQUIRES\tDESCRIPTION")
	for _, m := range registry.Manifests() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.Priority, m.Name, strings.Join(m.Tags, ","), strings.Join(m.Requires, ","), m.Description)
	}
	w.Flush()
}

func runOrphans(cmd *cobra.Command, args []string) {
	registry := service.NewRegistry(waves.DefaultManifests())
	orphans := registry.FindOrphanSignals()
	if len(orphans) == 0 {
		fmt.Println("Every required signal pattern has an emitter.")
		return
	}
	fmt.Printf("%d required pattern(s) that no wave emits:\n", len(orphans))
	for _, o := range orphans {
		fmt.Printf("  %s\n", o)
	}
}

func runRules(cmd *cobra.Command, args []string) {
	detector := newDetector(zap.NewNop()) // Defined in cmd_analyze.go

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tSIGNALS\tENABLED")
	for _, r := range detector.Rules() {
		signals := r.SignalKeyA
		if r.SignalKeyB != "" {
			signals += " vs " + r.SignalKeyB
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", r.ID, r.Type, r.Severity, signals, r.Enabled)
	}
	w.Flush()
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("percept %s (commit %s, built %s)\n",
		buildconfig.Version(), buildconfig.Commit(), buildconfig.Date())
}
