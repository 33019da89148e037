package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plara718/rekishi/internal/config"
	"github.com/plara718/rekishi/internal/llm"
	"github.com/plara718/rekishi/internal/logging"
	"github.com/plara718/rekishi/internal/session"
	"github.com/plara718/rekishi/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "rekishi",
	Short: "AI-generated Japanese history lessons in the terminal",
	Long:  "Rekishi builds a daily adaptive lesson from your weakness history: a short lecture, a quiz, and a graded essay question.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return playCmd.RunE(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides REKISHI_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User ID for model intervention lookups (overrides REKISHI_USER)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable console debug logging")
	rootCmd.PersistentFlags().String("date", "", "Run against a specific day (YYYY-MM-DD) instead of today")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(regenCmd)
	rootCmd.AddCommand(llmCmd)
}

// runtime bundles everything a command needs to run against the
// learner's data.
type runtime struct {
	cfg    config.App
	log    *zap.Logger
	store  store.DocumentStore
	engine *session.Engine
}

// newRuntime loads configuration and wires the store, provider,
// gateway and engine. The caller must invoke close when done.
func newRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
		if err := store.EnsureDir(p); err != nil {
			return nil, err
		}
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.UserID = u
	}
	if d, _ := cmd.Flags().GetBool("debug"); d {
		cfg.Debug = true
	}

	log := logging.New(logging.Options{File: cfg.LogFile, Debug: cfg.Debug})

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, log)
	if err != nil {
		st.Close()
		log.Sync()
		return nil, fmt.Errorf("create model provider: %w", err)
	}

	gateway := llm.NewGateway(provider, cfg.LLM.Models, log,
		llm.WithModelTierSource(&llm.StoreTierSource{Store: st}, cfg.UserID))

	var opts []session.EngineOption
	if d, _ := cmd.Flags().GetString("date"); d != "" {
		day, err := time.Parse(session.DateFormat, d)
		if err != nil {
			st.Close()
			log.Sync()
			return nil, fmt.Errorf("invalid --date %q: %w", d, err)
		}
		opts = append(opts, session.WithClock(func() time.Time { return day }))
	}

	engine := session.NewEngine(st, gateway, log, opts...)
	return &runtime{cfg: cfg, log: log, store: st, engine: engine}, nil
}

func (r *runtime) close() {
	r.store.Close()
	_ = r.log.Sync()
}
