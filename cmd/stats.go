package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/plara718/rekishi/internal/review"
	"github.com/plara718/rekishi/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show weakness statistics and completion history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		recorder := stats.NewRecorder(rt.store)
		summary, err := recorder.LoadSummary(ctx)
		if err != nil {
			return fmt.Errorf("load statistics: %w", err)
		}

		printSection("Eras", summary.Eras)
		printSection("Themes", summary.Themes)
		printSection("Mistake patterns", summary.Mistakes)

		heatmap, err := recorder.Heatmap(ctx)
		if err != nil {
			return fmt.Errorf("load heatmap: %w", err)
		}
		if len(heatmap) > 0 {
			fmt.Println("\nCompleted sessions:")
			dates := make([]string, 0, len(heatmap))
			for d := range heatmap {
				dates = append(dates, d)
			}
			sort.Sort(sort.Reverse(sort.StringSlice(dates)))
			for _, d := range dates {
				fmt.Printf("  %s  %d\n", d, heatmap[d])
			}
		}
		return nil
	},
}

func printSection(title string, section map[string]review.TagStat) {
	if len(section) == 0 {
		return
	}
	ids := make([]string, 0, len(section))
	for id := range section {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%s:\n", title)
	for _, id := range ids {
		st := section[id]
		label := id
		if tag := review.GetTag(id); tag != nil {
			label = tag.Label
		}
		rate := 0.0
		if st.Attempts > 0 {
			rate = float64(st.Errors) / float64(st.Attempts)
		}
		fmt.Printf("  %-28s %3d attempts  %3d errors  %3.0f%%\n", label, st.Attempts, st.Errors, rate*100)
	}
	fmt.Println()
}
