package walletapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the envelope every endpoint of the wallet API answers with.
type Response[T any] struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Pagination describes a page of a paginated listing. The previous and next
// offsets are nil when there is no such page.
type Pagination struct {
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	TotalCount  int  `json:"totalCount"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
	NextOffset  *int `json:"nextOffset"`
	PrevOffset  *int `json:"prevOffset"`
}

// HasPrev reports if a previous page exists. An offset of zero is a
// valid previous page.
func (p Pagination) HasPrev() bool {
	return p.PrevOffset != nil
}

// HasNext reports if a next page exists.
func (p Pagination) HasNext() bool {
	return p.NextOffset != nil
}

// =============================================================================

// Credentials is the payload for the register and login calls.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthData is returned by a successful register or login.
type AuthData struct {
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
}

// =============================================================================

// Set of transaction status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// NewTransaction is the payload for creating a transaction.
type NewTransaction struct {
	RecipientAddress string  `json:"recipientAddress" validate:"required"`
	Amount           float64 `json:"amount" validate:"gte=0.01"`
}

// Wallet is the identity of the current session along with its balance.
type Wallet struct {
	Balance       float64 `json:"balance"`
	WalletAddress string  `json:"walletAddress"`
}

// Summary aggregates the balances and counts of the current wallet.
type Summary struct {
	WalletAddress           string  `json:"walletAddress"`
	AvailableBalance        float64 `json:"availableBalance"`
	PendingBalance          float64 `json:"pendingBalance"`
	PendingTransactionCount int     `json:"pendingTransactionCount"`
	TotalTransactionCount   int     `json:"totalTransactionCount"`
}

// Transaction is a ledger transaction as seen by the wallet.
type Transaction struct {
	ID               string   `json:"_id"`
	SenderAddress    string   `json:"senderAddress"`
	RecipientAddress string   `json:"recipientAddress"`
	Amount           float64  `json:"amount"`
	Status           string   `json:"status"`
	BlockIndex       *int     `json:"blockIndex,omitempty"`
	Block            BlockRef `json:"block"`
	Timestamp        int64    `json:"timestamp"`
	Type             string   `json:"type,omitempty"`
}

// History is a page of transactions.
type History struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// =============================================================================

// BlockTransaction is a confirmed transaction embedded in a block.
type BlockTransaction struct {
	ID               string  `json:"_id"`
	SenderAddress    string  `json:"senderAddress"`
	RecipientAddress string  `json:"recipientAddress"`
	Amount           float64 `json:"amount"`
	BlockIndex       int     `json:"blockIndex"`
	Block            string  `json:"block"`
	Timestamp        int64   `json:"timestamp"`
}

// Block is a mined block of the chain.
type Block struct {
	ID           string            `json:"_id"`
	Index        int               `json:"index"`
	PreviousHash string            `json:"previousHash"`
	Nonce        int64             `json:"nonce"`
	Hash         string            `json:"hash"`
	Transactions BlockTransactions `json:"transactions"`
	Timestamp    int64             `json:"timestamp"`
	CreatedAt    string            `json:"createdAt"`
}

// Chain is a page of blocks.
type Chain struct {
	Blocks     []Block    `json:"blocks"`
	Pagination Pagination `json:"pagination"`
}

// ChainFilter narrows the blocks returned by the explorer. Zero values
// are not sent.
type ChainFilter struct {
	Hash   string `json:"hash,omitempty"`
	Date   string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Offset int    `json:"offset" validate:"gte=0"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
}

// Info describes the remote service.
type Info struct {
	AppName        string `json:"appName"`
	AppVersion     string `json:"appVersion"`
	AppEnvironment string `json:"appEnveronment"`
}

// =============================================================================

// BlockRef is the block field of a transaction. The API either sends the
// block id or the populated block.
type BlockRef struct {
	ID    string
	Block *Block
}

// UnmarshalJSON implements json.Unmarshaler.
func (br *BlockRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*br = BlockRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("block id: %w", err)
		}
		*br = BlockRef{ID: id}
		return nil
	}

	var blk Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return fmt.Errorf("block: %w", err)
	}
	*br = BlockRef{ID: blk.ID, Block: &blk}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (br BlockRef) MarshalJSON() ([]byte, error) {
	switch {
	case br.Block != nil:
		return json.Marshal(br.Block)
	case br.ID != "":
		return json.Marshal(br.ID)
	}
	return []byte("null"), nil
}

// BlockTransactions is the transactions field of a block. The API either
// sends the populated transactions or only their ids.
type BlockTransactions struct {
	IDs          []string
	Transactions []BlockTransaction
}

// Len returns the number of transactions in the block.
func (bt BlockTransactions) Len() int {
	if bt.Transactions != nil {
		return len(bt.Transactions)
	}
	return len(bt.IDs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (bt *BlockTransactions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("block transactions: %w", err)
	}

	*bt = BlockTransactions{}
	if len(raw) == 0 {
		return nil
	}

	if b := bytes.TrimSpace(raw[0]); len(b) > 0 && b[0] == '"' {
		bt.IDs = make([]string, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &bt.IDs[i]); err != nil {
				return fmt.Errorf("block transaction id[%d]: %w", i, err)
			}
		}
		return nil
	}

	bt.Transactions = make([]BlockTransaction, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal(r, &bt.Transactions[i]); err != nil {
			return fmt.Errorf("block transaction[%d]: %w", i, err)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (bt BlockTransactions) MarshalJSON() ([]byte, error) {
	if bt.Transactions != nil {
		return json.Marshal(bt.Transactions)
	}
	if bt.IDs != nil {
		return json.Marshal(bt.IDs)
	}
	return []byte("[]"), nil
}
