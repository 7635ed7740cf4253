package walletapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// MineBlock asks the server to mine the pending transactions into a block.
func (cln *Client) MineBlock(ctx context.Context) (Response[Block], error) {
	var resp Response[Block]
	if err := cln.do(ctx, http.MethodGet, "/crypto/mine", nil, &resp); err != nil {
		return Response[Block]{}, err
	}
	return resp, nil
}

// Chain returns a page of the blockchain narrowed by the filter.
func (cln *Client) Chain(ctx context.Context, filter ChainFilter) (Response[Chain], error) {
	path := "/crypto/chain"
	if q := filter.query(); q != "" {
		path += "?" + q
	}

	var resp Response[Chain]
	if err := cln.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Response[Chain]{}, err
	}
	return resp, nil
}

func (f ChainFilter) query() string {
	params := url.Values{}
	if f.Hash != "" {
		params.Set("hash", f.Hash)
	}
	if f.Date != "" {
		params.Set("date", f.Date)
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	return params.Encode()
}
