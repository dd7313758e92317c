package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/database"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/promotion"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// Services are the components a command operates on.
type Services struct {
	Store  store.Store
	Ledger *ledger.Ledger
	Ranker *matching.Ranker
	Close  func()
}

// Env resolves configuration and opens services. Commands that only need
// configuration never call Open.
type Env struct {
	Config func() (*config.Config, error)
	Open   func(ctx context.Context, cfg *config.Config, tables *scoring.Tables) (*Services, error)
}

// DefaultEnv reads the environment and connects to the configured store.
// Removals made through the CLI promote from the waitlist synchronously.
func DefaultEnv() Env {
	return Env{
		Config: config.Load,
		Open: func(ctx context.Context, cfg *config.Config, tables *scoring.Tables) (*Services, error) {
			s, closeStore, err := database.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return NewServices(s, cfg, tables, closeStore), nil
		},
	}
}

// NewServices wires the ledger, promoter and ranker on s. Component logs go
// to stderr at warn level so they never mix with command output.
func NewServices(s store.Store, cfg *config.Config, tables *scoring.Tables, closeFn func()) *Services {
	lg := logger.New(os.Stderr, slog.LevelWarn)
	policy := store.RetryPolicy{MaxAttempts: cfg.TxMaxAttempts, Backoff: cfg.TxBackoff}
	promoter := promotion.New(s,
		promotion.WithRetryPolicy(policy),
		promotion.WithScanLimit(cfg.WaitlistScanLimit),
		promotion.WithLogger(lg.Named("promotion")),
	)
	if closeFn == nil {
		closeFn = func() {}
	}
	return &Services{
		Store:  s,
		Ledger: ledger.New(s,
			ledger.WithRetryPolicy(policy),
			ledger.WithRemovalListener(promoter),
			ledger.WithLogger(lg.Named("ledger")),
		),
		Ranker: matching.NewRanker(s, scoring.NewEngine(tables), matching.WithLogger(lg.Named("matching"))),
		Close:  closeFn,
	}
}

func (o *RootOptions) config() (*config.Config, error) {
	return o.env.Config()
}

func (o *RootOptions) tables(cfg *config.Config) (*scoring.Tables, error) {
	path := o.Tables
	if path == "" {
		path = cfg.SynergyTablePath
	}
	return scoring.Load(path)
}

func (o *RootOptions) open(ctx context.Context) (*Services, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	tables, err := o.tables(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load synergy tables", err)
	}
	svc, err := o.env.Open(ctx, cfg, tables)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return svc, nil
}
