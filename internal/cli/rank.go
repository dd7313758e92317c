package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type rankedView struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// NewRankCommand creates the rank command.
func NewRankCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rank <event-id> <user-id>",
		Short: "Rank an attendee's compatible matches at an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			results, err := svc.Ranker.Rank(ctx, args[0], args[1])
			if err != nil {
				return operationError("rank failed", err)
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			views := make([]rankedView, 0, len(results))
			for _, r := range results {
				views = append(views, rankedView{ID: r.ID, Score: r.Score})
			}
			return opts.formatter(cmd).Print(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no compatible attendees")
					return
				}
				for i, v := range views {
					fmt.Fprintf(w, "%2d. %-24s %6.2f\n", i+1, v.ID, v.Score)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many matches (0 shows all)")
	return cmd
}
