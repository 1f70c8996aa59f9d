// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the concept-miner CLI. Each pipeline
// stage is a subcommand: fetch downloads wiki markup, extract mines and
// aggregates wikilink concepts, convert renders articles to Markdown and
// lookup queries the concept store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-miner/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the concept-miner CLI.
var rootCmd = &cobra.Command{
	Use:   "concept-miner",
	Short: "Harvest wikilink concepts from Wikipedia pages",
	Long: `concept-miner fetches the wiki markup of a list of page titles, follows
redirects, extracts every [[wikilink]] as a candidate concept, filters out
namespace, place, military and commercial noise, and writes one sorted,
deduplicated JSON array.

Stages are resumable: fetch records finished titles in a done ledger and
extract records processed page files, so an interrupted run picks up where
it stopped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./concept-miner.yaml or ~/.config/concept-miner/config.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging and per-keyword filter report")
	pf.String("log-format", "pretty", "diagnostic log format: pretty or json")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of credential files")
	pf.String("base-url", "https://zh.wikipedia.org", "wiki root URL")
	pf.String("user-agent", defaultUserAgent, "User-Agent sent to the wiki")
	pf.Duration("timeout", 60*time.Second, "HTTP request timeout")
	pf.Int("max-retries", 5, "retries after HTTP 429 responses")
	pf.String("titles", "output.json", "JSON array of page titles to process")
	pf.String("pages-dir", "pages", "directory of fetched page markup")
	pf.String("index-dir", "index", "directory holding the concept store")

	bindFlag(pf.Lookup("verbose"), "verbose")
	bindFlag(pf.Lookup("log-format"), "log.format")
	bindFlag(pf.Lookup("secrets-dir"), "secrets_dir")
	bindFlag(pf.Lookup("base-url"), "wiki.base_url")
	bindFlag(pf.Lookup("user-agent"), "http.user_agent")
	bindFlag(pf.Lookup("timeout"), "http.timeout")
	bindFlag(pf.Lookup("max-retries"), "http.max_retries")
	bindFlag(pf.Lookup("titles"), "titles_path")
	bindFlag(pf.Lookup("pages-dir"), "pages_dir")
	bindFlag(pf.Lookup("index-dir"), "store.index_dir")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("concept-miner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "concept-miner"))
		}
	}

	viper.SetEnvPrefix("CONCEPT_MINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging points the global zerolog logger at stderr so stdout stays
// reserved for progress lines and command output.
func setupLogging() error {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	switch format := viper.GetString("log.format"); format {
	case "", "pretty":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q (want pretty or json)", format)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
