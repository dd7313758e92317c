package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/auth"
	"github.com/spf13/cobra"
)

type tokenView struct {
	Subject   string    `json:"subject" yaml:"subject"`
	Token     string    `json:"token" yaml:"token"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// NewTokenCommand creates the token command, which mints operator tokens
// signed with JWT_SECRET.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			if ttl <= 0 {
				ttl = auth.TokenDuration
			}
			token, err := auth.NewAuthHandler(cfg).GenerateToken(subject, auth.RoleOperator, ttl)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to sign token", err)
			}
			view := tokenView{Subject: subject, Token: token, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
			return opts.formatter(cmd).Print(view, func(w io.Writer) { fmt.Fprintln(w, token) })
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator identity recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.TokenDuration, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
