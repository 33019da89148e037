package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show the recommended review focus",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		strategy := rt.engine.Recommend(ctx)
		fmt.Printf("Era:     %s\nTheme:   %s\nMistake: %s\n\n%s\n",
			strategy.Era.Label, strategy.Theme.Label, strategy.Mistake.Label, strategy.Justification)
		return nil
	},
}
