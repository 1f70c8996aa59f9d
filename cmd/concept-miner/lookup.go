// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/concept-miner/internal/store"
	"github.com/pdiddy/concept-miner/pkg/types"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [substring]",
	Short: "Query the concept store",
	Long: `Lookup lists stored concepts containing the substring, with the page files
each one came from. Without a substring it lists everything up to --limit.
Concepts are reported as extracted, before keyword filtering.

--stats prints store totals instead; --export writes every concept and the
totals to a .json or .yaml file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLookup,
}

func init() {
	f := lookupCmd.Flags()
	f.Int("limit", 0, "maximum number of results (default 50)")
	f.Bool("json", false, "output results as JSON")
	f.Bool("stats", false, "print store totals")
	f.String("export", "", "write the store to a .json or .yaml file")

	bindFlag(f.Lookup("limit"), "store.max_results")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig().Store

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := st.ExportFile(ctx, path); err != nil {
			return err
		}
		fmt.Printf("exported concept store to %s\n", path)
		return nil
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(stats)
		return nil
	}

	var substr string
	if len(args) == 1 {
		substr = args[0]
	}
	hits, err := st.Lookup(ctx, substr, cfg.MaxResults)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(hits)
	}
	if len(hits) == 0 {
		fmt.Println("no matching concepts")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%s\t%s\n", h.Text, strings.Join(h.Files, ", "))
	}
	return nil
}

func printStats(s types.StoreStats) {
	fmt.Printf("files:           %d\n", s.Files)
	fmt.Printf("concepts:        %d\n", s.Concepts)
	fmt.Printf("unique concepts: %d\n", s.UniqueConcepts)
	if !s.LastExtracted.IsZero() {
		fmt.Printf("last extracted:  %s\n", s.LastExtracted.Format("2006-01-02 15:04:05"))
	}
}
