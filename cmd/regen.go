package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plara718/rekishi/internal/quota"
)

var regenCmd = &cobra.Command{
	Use:   "regen",
	Short: "Regenerate the current session's lesson (once per day)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.engine.Load(ctx); err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		err = rt.engine.Regenerate(ctx)
		if errors.Is(err, quota.ErrRegenLimitExceeded) {
			fmt.Println("Today's regeneration is already used up. The allowance resets tomorrow.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("New lesson generated: %s\n", rt.engine.Lesson().Theme)
		return nil
	},
}
