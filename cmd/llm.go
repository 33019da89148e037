package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plara718/rekishi/internal/config"
	"github.com/plara718/rekishi/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the model configuration",
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate provider settings and show the configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		llmCfg := cfg.LLM
		if err := llmCfg.Validate(); err != nil {
			if discovered, ok := llm.DiscoverConfig(); ok {
				llmCfg = discovered
				fmt.Printf("No explicit provider set; discovered %q from the environment.\n", llmCfg.Provider)
			} else {
				return fmt.Errorf("model configuration invalid: %w", err)
			}
		}

		fmt.Printf("Provider:         %s\n", llmCfg.Provider)
		fmt.Printf("Production model: %s\n", llmCfg.Models.Production)
		fmt.Printf("Test model:       %s\n", llmCfg.Models.Test)
		fmt.Printf("Retry policy:     %d attempts, %s base delay\n",
			llmCfg.Retry.MaxAttempts, llmCfg.Retry.Delay)
		return nil
	},
}

func init() {
	llmCmd.AddCommand(llmCheckCmd)
}
