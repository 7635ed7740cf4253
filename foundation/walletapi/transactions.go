package walletapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateTransaction submits a new transaction from the session's wallet.
func (cln *Client) CreateTransaction(ctx context.Context, nt NewTransaction) (Response[any], error) {
	var resp Response[any]
	if err := cln.do(ctx, http.MethodPost, "/transaction", nt, &resp); err != nil {
		return Response[any]{}, err
	}
	return resp, nil
}

// Wallet returns the address and balance of the session's wallet. It is
// the call used to find out if the session is still valid.
func (cln *Client) Wallet(ctx context.Context) (Response[Wallet], error) {
	var resp Response[Wallet]
	if err := cln.do(ctx, http.MethodGet, "/transaction/wallet", nil, &resp); err != nil {
		return Response[Wallet]{}, err
	}
	return resp, nil
}

// PendingBalance returns the balance of the wallet including pending
// transactions.
func (cln *Client) PendingBalance(ctx context.Context) (Response[Wallet], error) {
	var resp Response[Wallet]
	if err := cln.do(ctx, http.MethodGet, "/transaction/pending/balance", nil, &resp); err != nil {
		return Response[Wallet]{}, err
	}
	return resp, nil
}

// TransactionsByStatus returns the wallet's transactions with the specified
// status. A limit of zero leaves the limit to the server.
func (cln *Client) TransactionsByStatus(ctx context.Context, status string, limit int) (Response[[]Transaction], error) {
	params := url.Values{}
	params.Set("status", status)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp Response[[]Transaction]
	if err := cln.do(ctx, http.MethodGet, "/transaction?"+params.Encode(), nil, &resp); err != nil {
		return Response[[]Transaction]{}, err
	}
	return resp, nil
}

// TransactionHistory returns a page of the wallet's transaction history.
func (cln *Client) TransactionHistory(ctx context.Context, status string, offset int, limit int) (Response[History], error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("status", status)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var resp Response[History]
	if err := cln.do(ctx, http.MethodGet, "/transaction/history?"+params.Encode(), nil, &resp); err != nil {
		return Response[History]{}, err
	}
	return resp, nil
}

// TransactionSummary returns the summary of the session's wallet.
func (cln *Client) TransactionSummary(ctx context.Context) (Response[Summary], error) {
	var resp Response[Summary]
	if err := cln.do(ctx, http.MethodGet, "/transaction/summary", nil, &resp); err != nil {
		return Response[Summary]{}, err
	}
	return resp, nil
}
