package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type questionView struct {
	Key     string   `json:"key" yaml:"key"`
	Weight  float64  `json:"weight" yaml:"weight"`
	Answers []string `json:"answers" yaml:"answers"`
}

// NewTablesCommand creates the tables command. It loads and validates the
// synergy tables the server would use, including weight overrides from the
// environment.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Validate and print the compatibility questionnaire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			t, err := opts.tables(cfg)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid synergy tables", err)
			}
			views := make([]questionView, 0, len(t.Keys()))
			for _, k := range t.Keys() {
				views = append(views, questionView{Key: k, Weight: t.Weight(k), Answers: t.Answers(k)})
			}
			return opts.formatter(cmd).Print(views, func(w io.Writer) {
				for _, v := range views {
					fmt.Fprintf(w, "%-20s %4.1f  %s\n", v.Key, v.Weight, strings.Join(v.Answers, ", "))
				}
			})
		},
	}
}
