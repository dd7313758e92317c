package handlers

import (
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// Handler serves the ledger, waitlist and matching operations.
type Handler struct {
	store  store.Store
	ledger *ledger.Ledger
	ranker *matching.Ranker
	log    logger.Logger
}

func NewHandler(s store.Store, l *ledger.Ledger, r *matching.Ranker) *Handler {
	return &Handler{
		store:  s,
		ledger: l,
		ranker: r,
		log:    logger.Named("handlers"),
	}
}
