package cmd

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"folio/internal/embedder"
	"folio/internal/logger"
	"folio/internal/store"

	"github.com/rs/zerolog"
)

var (
	flagDB         string
	flagRemoteURL  string
	flagRemoteTok  string
	flagOllama     string
	flagEmbedModel string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Browse and search an indexed document library",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", envOr("FOLIO_DB", ""), "index database path (default <cwd>/.folio/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagRemoteURL, "remote", envOr("FOLIO_REMOTE_URL", ""), "remote tag-search base URL (empty disables)")
	rootCmd.PersistentFlags().StringVar(&flagRemoteTok, "remote-token", envOr("FOLIO_REMOTE_TOKEN", ""), "remote tag-search bearer token")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", envOr("FOLIO_OLLAMA_URL", ""), "embedding server URL for semantic search (empty disables)")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "model", "nomic-embed-text", "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// dbPath resolves the index database location.
func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, ".folio", "index.db"), nil
}

// newEmbedder returns the configured embedder, or nil when no embedding
// server is set.
func newEmbedder() *embedder.Embedder {
	if flagOllama == "" {
		return nil
	}
	return embedder.New(flagOllama, flagEmbedModel)
}

// openStore opens the index database with the configured embedder and a
// logger writing next to the database.
func openStore() (*store.Store, zerolog.Logger, error) {
	path, err := dbPath()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(filepath.Dir(path), flagLogLevel)

	st, err := store.Open(path, newEmbedder(), log)
	if err != nil {
		return nil, log, err
	}
	return st, log, nil
}
