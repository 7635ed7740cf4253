// Package walletgrp maintains the group of handlers for the wallet and its
// transactions.
package walletgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/web/errs"
	v1 "github.com/ardanlabs/walletdash/business/web/v1"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ardanlabs/walletdash/foundation/web"
)

// Handlers manages the set of wallet endpoints.
type Handlers struct {
	Session *session.Controller
	Ledger  *ledger.Ledger
}

// Wallet returns the wallet of the session.
func (h Handlers) Wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	wal, err := h.Session.Wallet()
	if err != nil {
		return unavailable(err)
	}

	return v1.Respond(ctx, w, wal, "", http.StatusOK)
}

// Pending returns the balance of the wallet including the pending
// transactions.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	wal, err := h.Ledger.PendingBalance(ctx)
	if err != nil {
		return unavailable(err)
	}

	return v1.Respond(ctx, w, wal, "", http.StatusOK)
}

// Summary returns the transaction summary of the wallet.
func (h Handlers) Summary(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sum, err := h.Ledger.Summary(ctx)
	if err != nil {
		return unavailable(err)
	}

	return v1.Respond(ctx, w, sum, "", http.StatusOK)
}

// Transactions returns the wallet's transactions with a status.
func (h Handlers) Transactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	qs := r.URL.Query()

	status := qs.Get("status")
	if status == "" {
		status = walletapi.StatusPending
	}

	limit, err := intParam(qs.Get("limit"), 10)
	if err != nil {
		return err
	}

	txs, err := h.Ledger.TransactionsByStatus(ctx, status, limit)
	if err != nil {
		return unavailable(err)
	}

	return v1.Respond(ctx, w, txs, "", http.StatusOK)
}

// History returns a page of the wallet's transaction history.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	qs := r.URL.Query()

	status := qs.Get("status")
	if status == "" {
		status = walletapi.StatusConfirmed
	}

	offset, err := intParam(qs.Get("offset"), 0)
	if err != nil {
		return err
	}

	limit, err := intParam(qs.Get("limit"), 10)
	if err != nil {
		return err
	}

	hst, err := h.Ledger.History(ctx, status, offset, limit)
	if err != nil {
		return unavailable(err)
	}

	return v1.Respond(ctx, w, hst, "", http.StatusOK)
}

// Create sends an amount from the wallet to a recipient.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nt walletapi.NewTransaction
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(fmt.Errorf("decode: %w", err), http.StatusBadRequest)
	}

	if err := h.Ledger.CreateTransaction(ctx, nt.RecipientAddress, nt.Amount); err != nil {
		return err
	}

	return v1.Respond[any](ctx, w, nil, "Transaction created successfully!", http.StatusCreated)
}

// =============================================================================

// unavailable maps the errors of the session data that are not already
// understood by the error middleware.
func unavailable(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidStatus):
		return errs.NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, session.ErrNoWallet):
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return err
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid number %q", v), http.StatusBadRequest)
	}

	return n, nil
}
