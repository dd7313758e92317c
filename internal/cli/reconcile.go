package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type countsView struct {
	Men   int `json:"men" yaml:"men"`
	Women int `json:"women" yaml:"women"`
}

type reconcileView struct {
	EventID string     `json:"event_id" yaml:"event_id"`
	Cached  countsView `json:"cached" yaml:"cached"`
	Actual  countsView `json:"actual" yaml:"actual"`
	Drifted bool       `json:"drifted" yaml:"drifted"`
	Applied bool       `json:"applied" yaml:"applied"`
}

// NewReconcileCommand creates the reconcile command. Without --apply it only
// reports, and exits 1 when the counters have drifted.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "reconcile <event-id>",
		Short: "Compare cached signup counters with the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			rep, err := svc.Ledger.Reconcile(ctx, args[0], apply)
			if err != nil {
				return operationError("reconcile failed", err)
			}
			view := reconcileView{
				EventID: rep.EventID,
				Cached:  countsView{Men: rep.Cached.Men, Women: rep.Cached.Women},
				Actual:  countsView{Men: rep.Actual.Men, Women: rep.Actual.Women},
				Drifted: rep.Drifted(),
				Applied: rep.Applied,
			}
			err = opts.formatter(cmd).Print(view, func(w io.Writer) {
				fmt.Fprintf(w, "%s  men %d (roster %d)  women %d (roster %d)\n",
					view.EventID, view.Cached.Men, view.Actual.Men, view.Cached.Women, view.Actual.Women)
				switch {
				case view.Applied:
					fmt.Fprintln(w, "drift corrected")
				case view.Drifted:
					fmt.Fprintln(w, "drift detected, rerun with --apply to correct")
				default:
					fmt.Fprintln(w, "counters consistent")
				}
			})
			if err != nil {
				return err
			}
			if view.Drifted && !view.Applied {
				return NewExitError(ExitFailure, "counters drifted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "overwrite drifted counters with the roster counts")
	return cmd
}
