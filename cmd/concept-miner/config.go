// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-miner/pkg/types"
)

const defaultUserAgent = "concept-miner/0.1 (https://github.com/pdiddy/concept-miner)"

// bindFlag ties a flag to a viper key so the config file and
// CONCEPT_MINER_* environment variables can supply it.
func bindFlag(f *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// loadConfig assembles the effective pipeline configuration from flags,
// environment, config file and secrets, in that order of precedence.
func loadConfig() types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:     viper.GetDuration("http.timeout"),
		UserAgent:   viper.GetString("http.user_agent"),
		AccessToken: viper.GetString("http.access_token"),
		MaxRetries:  viper.GetInt("http.max_retries"),
	}
	loadedSecrets.ApplyTo(&httpCfg)
	baseURL := viper.GetString("wiki.base_url")

	return types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig:   httpCfg,
			BaseURL:      baseURL,
			Source:       types.SourceKind(viper.GetString("fetch.source")),
			PagesDir:     viper.GetString("pages_dir"),
			DonePath:     viper.GetString("fetch.done_path"),
			Workers:      viper.GetInt("fetch.workers"),
			MaxRedirects: viper.GetInt("fetch.max_redirects"),
		},
		Extraction: types.ExtractionConfig{
			PagesDir:   viper.GetString("pages_dir"),
			LedgerPath: viper.GetString("extraction.ledger_path"),
			OutputPath: viper.GetString("extraction.output_path"),
			PipeMode:   types.PipeMode(viper.GetString("extraction.pipe_mode")),
			SaveEvery:  viper.GetInt("extraction.save_every"),
			Full:       viper.GetBool("extraction.full"),
		},
		Filter: types.FilterConfig{
			KeywordsFile: viper.GetString("filter.keywords_file"),
		},
		Conversion: types.ConversionConfig{
			HTTPConfig:  httpCfg,
			BaseURL:     baseURL,
			MarkdownDir: viper.GetString("conversion.markdown_dir"),
			Delay:       viper.GetDuration("conversion.delay"),
		},
		Store: types.StoreConfig{
			IndexDir:   viper.GetString("store.index_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration every stage would run with after merging
flags, CONCEPT_MINER_* environment variables, the config file and secrets.
Credentials are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		for _, h := range []*types.HTTPConfig{&cfg.Fetch.HTTPConfig, &cfg.Conversion.HTTPConfig} {
			if h.AccessToken != "" {
				h.AccessToken = "********"
			}
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
