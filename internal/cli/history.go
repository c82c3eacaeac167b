package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/internal/ui"
	"github.com/teslashibe/go-posecoach/pkg/report"
)

type historyOutput struct {
	Sessions []report.HistoryEntry   `json:"sessions"`
	Overview report.ProgressOverview `json:"overview"`
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sessions and overall progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			overview := report.Overview(entries, a.cfg.Server.MasteredThreshold)

			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []report.HistoryEntry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(historyOutput{Sessions: entries, Overview: overview})
			}

			fmt.Fprintln(out, ui.RenderHistory(entries))
			if len(entries) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, ui.RenderOverview(overview))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of recent sessions (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
