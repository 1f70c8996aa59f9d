// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-miner/internal/extract"
	"github.com/pdiddy/concept-miner/internal/fetch"
	"github.com/pdiddy/concept-miner/internal/ledger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [titles...]",
	Short: "Download the wiki markup of page titles",
	Long: `Fetch reads page titles (from arguments, or the --titles JSON array),
retrieves each page's wiki markup from its edit form, follows redirect
chains, and writes <pages-dir>/<title>.txt under the requested title.

Titles already in the done ledger are skipped. Each finished title is
recorded immediately, so an interrupted fetch resumes where it stopped.`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("done", "done.json", "ledger of titles already fetched")
	f.Int("workers", fetch.DefaultWorkers, "concurrent page requests")
	f.String("source", "edit", "markup source: edit (edit-form textarea) or raw (action=raw)")
	f.Int("max-redirects", 10, "redirect hops followed per title")

	bindFlag(f.Lookup("done"), "fetch.done_path")
	bindFlag(f.Lookup("workers"), "fetch.workers")
	bindFlag(f.Lookup("source"), "fetch.source")
	bindFlag(f.Lookup("max-redirects"), "fetch.max_redirects")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig().Fetch

	titles := args
	if len(titles) == 0 {
		path := viper.GetString("titles_path")
		loaded, err := fetch.LoadTitles(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: titles file %s not found", extract.ErrMissingInput, path)
		}
		if err != nil {
			return err
		}
		titles = loaded
	}

	source, err := fetch.NewSource(newHTTPClient(cfg.HTTPConfig), cfg)
	if err != nil {
		return err
	}
	log.Debug().Str("source", source.Name()).Str("base_url", cfg.BaseURL).
		Int("workers", cfg.Workers).Bool("token", cfg.AccessToken != "").Msg("starting fetch")

	fetcher := fetch.NewFetcher(source, cfg.PagesDir, cfg.MaxRedirects)
	done := ledger.Open(cfg.DonePath)

	result := fetch.FetchBatch(cmd.Context(), fetcher, titles, done, cfg.Workers, os.Stdout)
	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("fetch interrupted: %w", err)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d title(s) failed to fetch", result.Failed)
	}
	return nil
}
