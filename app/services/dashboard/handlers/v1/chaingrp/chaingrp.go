// Package chaingrp maintains the group of handlers for the blockchain
// explorer.
package chaingrp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/web/errs"
	v1 "github.com/ardanlabs/walletdash/business/web/v1"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
)

// Handlers manages the set of blockchain endpoints.
type Handlers struct {
	Ledger *ledger.Ledger
}

// Chain returns a page of blocks narrowed by hash or date.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	qs := r.URL.Query()

	filter := walletapi.ChainFilter{
		Hash: qs.Get("hash"),
		Date: qs.Get("date"),
	}

	for name, dst := range map[string]*int{"offset": &filter.Offset, "limit": &filter.Limit} {
		v := qs.Get(name)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid %s %q", name, v), http.StatusBadRequest)
		}
		*dst = n
	}

	chain, err := h.Ledger.Chain(ctx, filter)
	if err != nil {
		return err
	}

	return v1.Respond(ctx, w, chain, "", http.StatusOK)
}

// Mine asks the wallet API to mine the pending transactions into a block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.Ledger.MineBlock(ctx)
	if err != nil {
		return err
	}

	return v1.Respond(ctx, w, blk, "Block mined successfully!", http.StatusCreated)
}
