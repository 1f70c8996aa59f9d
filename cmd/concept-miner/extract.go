// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-miner/internal/aggregate"
	"github.com/pdiddy/concept-miner/internal/extract"
	"github.com/pdiddy/concept-miner/internal/filter"
	"github.com/pdiddy/concept-miner/internal/ledger"
	"github.com/pdiddy/concept-miner/internal/store"
	"github.com/pdiddy/concept-miner/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract, filter and deduplicate wikilink concepts",
	Long: `Extract scans every .txt page in the pages directory that the processed
ledger has not seen, pulls out each [[wikilink]], and records the concepts
per file in the concept store. It then filters the full stored set through
the exclusion keywords, deduplicates, sorts, and writes the result as a
JSON array.

The result always covers every page processed so far, not just the pages
new in this run. Use --full to re-extract everything.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("ledger", "processed_files_log.json", "ledger of page files already processed")
	f.String("output", "extracted_concepts.json", "result JSON array")
	f.String("keywords-file", "", "YAML keyword list replacing the built-in exclusions")
	f.String("pipe-mode", string(types.PipeWhole), "piped links: whole keeps \"Target|Label\", target keeps \"Target\"")
	f.Int("save-every", 10, "save the ledger after this many new files")
	f.Bool("full", false, "ignore the ledger and re-extract every page")

	bindFlag(f.Lookup("ledger"), "extraction.ledger_path")
	bindFlag(f.Lookup("output"), "extraction.output_path")
	bindFlag(f.Lookup("keywords-file"), "filter.keywords_file")
	bindFlag(f.Lookup("pipe-mode"), "extraction.pipe_mode")
	bindFlag(f.Lookup("save-every"), "extraction.save_every")
	bindFlag(f.Lookup("full"), "extraction.full")

	rootCmd.AddCommand(extractCmd)
}

func loadKeywords(cfg types.FilterConfig) (filter.KeywordSet, error) {
	if cfg.KeywordsFile == "" {
		return filter.DefaultKeywords(), nil
	}
	return filter.LoadKeywords(cfg.KeywordsFile)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	switch cfg.Extraction.PipeMode {
	case "", types.PipeWhole, types.PipeTarget:
	default:
		return fmt.Errorf("unknown pipe mode %q (want %q or %q)", cfg.Extraction.PipeMode, types.PipeWhole, types.PipeTarget)
	}

	keywords, err := loadKeywords(cfg.Filter)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	processed := ledger.Open(cfg.Extraction.LedgerPath)
	summary, err := extract.ExtractAll(ctx, cfg.Extraction, processed, st, os.Stdout)
	if err != nil {
		return err
	}

	all, err := st.AllConcepts(ctx)
	if err != nil {
		return fmt.Errorf("loading stored concepts: %w", err)
	}
	log.Debug().Int("new", summary.Concepts).Int("stored", len(all)).Msg("aggregating concepts")

	result := aggregate.Aggregate(all, keywords)
	aggregate.Report(os.Stdout, result, viper.GetBool("verbose"))
	if err := aggregate.WriteJSON(cfg.Extraction.OutputPath, result.Concepts); err != nil {
		return err
	}
	fmt.Printf("wrote %d concept(s) to %s\n", len(result.Concepts), cfg.Extraction.OutputPath)

	if summary.HasFailures() {
		return fmt.Errorf("%d page file(s) failed extraction", summary.Failed)
	}
	return nil
}
