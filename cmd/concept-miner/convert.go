// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-miner/internal/convert"
	"github.com/pdiddy/concept-miner/internal/fetch"
)

var convertCmd = &cobra.Command{
	Use:   "convert [titles...]",
	Short: "Convert rendered articles to Markdown",
	Long: `Convert requests the rendered HTML of each title (action=render), strips
edit links, footnote markers and navigation boxes, and writes GitHub-flavored
Markdown with a small YAML frontmatter to <markdown-dir>/<title>.md.
Existing Markdown files are skipped.`,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("markdown-dir", "markdown", "directory for Markdown output")
	f.Duration("delay", 0, "delay between consecutive requests (default 1s)")

	bindFlag(f.Lookup("markdown-dir"), "conversion.markdown_dir")
	bindFlag(f.Lookup("delay"), "conversion.delay")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := loadConfig().Conversion

	titles := args
	if len(titles) == 0 {
		loaded, err := fetch.LoadTitles(viper.GetString("titles_path"))
		if err != nil {
			return err
		}
		titles = loaded
	}

	result := convert.ConvertBatch(cmd.Context(), newHTTPClient(cfg.HTTPConfig),
		convert.NewHTMLConverter(), titles, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d title(s) failed conversion", result.Failed)
	}
	return nil
}
