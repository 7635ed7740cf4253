// Package ledger provides the transaction and blockchain views of the
// dashboard. Reads go through the request cache and mutations invalidate
// the keys they affect.
package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/sys/validate"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// Set of cache keys owned by the ledger.
var (
	KeyPendingBalance = query.Key{"pending-balance"}
	KeySummary        = query.Key{"transaction-summary"}
	KeyTransactions   = query.Key{"transactions"}
	KeyHistory        = query.Key{"transaction-history"}
	KeyBlockchain     = query.Key{"blockchain"}
)

// sessionKeys are refreshed whenever a new session starts.
var sessionKeys = []query.Key{
	KeyPendingBalance,
	KeySummary,
	KeyTransactions,
	KeyHistory,
}

// API is the part of the wallet API the ledger needs.
type API interface {
	CreateTransaction(ctx context.Context, nt walletapi.NewTransaction) (walletapi.Response[any], error)
	PendingBalance(ctx context.Context) (walletapi.Response[walletapi.Wallet], error)
	TransactionsByStatus(ctx context.Context, status string, limit int) (walletapi.Response[[]walletapi.Transaction], error)
	TransactionHistory(ctx context.Context, status string, offset int, limit int) (walletapi.Response[walletapi.History], error)
	TransactionSummary(ctx context.Context) (walletapi.Response[walletapi.Summary], error)
	MineBlock(ctx context.Context) (walletapi.Response[walletapi.Block], error)
	Chain(ctx context.Context, filter walletapi.ChainFilter) (walletapi.Response[walletapi.Chain], error)
}

// Config is the set of collaborators the ledger needs.
type Config struct {
	Log      *zap.SugaredLogger
	API      API
	Cache    *query.Cache
	Notifier session.Notifier
}

// Ledger manages the transaction and blockchain data of the session.
type Ledger struct {
	log      *zap.SugaredLogger
	api      API
	cache    *query.Cache
	notifier session.Notifier
	pending  *query.Query[walletapi.Response[walletapi.Wallet]]
	summary  *query.Query[walletapi.Response[walletapi.Summary]]
}

// New constructs a ledger.
func New(cfg Config) *Ledger {
	l := Ledger{
		log:      cfg.Log,
		api:      cfg.API,
		cache:    cfg.Cache,
		notifier: cfg.Notifier,
	}

	l.pending = query.New(cfg.Cache, KeyPendingBalance, cfg.API.PendingBalance, query.WithRetry(retry))
	l.summary = query.New(cfg.Cache, KeySummary, cfg.API.TransactionSummary, query.WithRetry(retry))

	return &l
}

// SessionChanged refreshes the session scoped data when a new session
// starts. Subscribe it to the session controller.
func (l *Ledger) SessionChanged(ctx context.Context, ch session.Change) {
	if ch.Event != session.LoginSucceeded {
		return
	}

	for _, key := range sessionKeys {
		l.cache.Invalidate(ctx, key)
	}
}

// =============================================================================

// PendingBalance returns the wallet balance including pending transactions.
func (l *Ledger) PendingBalance(ctx context.Context) (walletapi.Wallet, error) {
	s := l.pending.Get(ctx)
	return data(s, "pending balance")
}

// Summary returns the summary of the session's wallet.
func (l *Ledger) Summary(ctx context.Context) (walletapi.Summary, error) {
	s := l.summary.Get(ctx)
	return data(s, "transaction summary")
}

// TransactionsByStatus returns the wallet's transactions with the status.
func (l *Ledger) TransactionsByStatus(ctx context.Context, status string, limit int) ([]walletapi.Transaction, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	key := append(query.Key{}, KeyTransactions...)
	key = append(key, status, strconv.Itoa(limit))

	fn := func(ctx context.Context) (walletapi.Response[[]walletapi.Transaction], error) {
		return l.api.TransactionsByStatus(ctx, status, limit)
	}

	q := query.New(l.cache, key, fn, query.WithoutObserve(), query.WithRetry(retry))
	return data(q.Get(ctx), "transactions")
}

// History returns a page of the wallet's transaction history.
func (l *Ledger) History(ctx context.Context, status string, offset int, limit int) (walletapi.History, error) {
	if err := checkStatus(status); err != nil {
		return walletapi.History{}, err
	}

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	key := append(query.Key{}, KeyHistory...)
	key = append(key, status, strconv.Itoa(offset), strconv.Itoa(limit))

	fn := func(ctx context.Context) (walletapi.Response[walletapi.History], error) {
		return l.api.TransactionHistory(ctx, status, offset, limit)
	}

	q := query.New(l.cache, key, fn, query.WithoutObserve(), query.WithRetry(retry))
	return data(q.Get(ctx), "transaction history")
}

// Chain returns a page of the blockchain narrowed by the filter.
func (l *Ledger) Chain(ctx context.Context, filter walletapi.ChainFilter) (walletapi.Chain, error) {
	if err := validate.Check(filter); err != nil {
		return walletapi.Chain{}, fmt.Errorf("validate: %w", err)
	}

	if filter.Limit == 0 {
		filter.Limit = 10
	}

	key := append(query.Key{}, KeyBlockchain...)
	key = append(key, filter.Hash, filter.Date, strconv.Itoa(filter.Offset), strconv.Itoa(filter.Limit))

	fn := func(ctx context.Context) (walletapi.Response[walletapi.Chain], error) {
		return l.api.Chain(ctx, filter)
	}

	q := query.New(l.cache, key, fn, query.WithoutObserve(), query.WithRetry(retry))
	return data(q.Get(ctx), "blockchain")
}

// =============================================================================

// CreateTransaction sends an amount from the session's wallet to the
// recipient.
func (l *Ledger) CreateTransaction(ctx context.Context, recipient string, amount float64) error {
	nt := walletapi.NewTransaction{
		RecipientAddress: recipient,
		Amount:           amount,
	}

	if err := validate.Check(nt); err != nil {
		l.notify(session.LevelError, err.Error())
		return fmt.Errorf("validate: %w", err)
	}

	resp, err := l.api.CreateTransaction(ctx, nt)
	if err != nil {
		l.log.Infow("ledger", "action", "create transaction", "recipient", recipient, "amount", amount, "ERROR", err)
		l.notify(session.LevelError, walletapi.Message(err, "Failed to create transaction"))
		return fmt.Errorf("create transaction: %w", err)
	}

	l.notify(session.LevelSuccess, messageOr(resp.Message, "Transaction created successfully!"))

	for _, key := range []query.Key{session.IdentityKey, KeyPendingBalance, KeySummary, KeyTransactions, KeyHistory} {
		l.cache.Invalidate(ctx, key)
	}

	return nil
}

// MineBlock asks the server to mine the pending transactions.
func (l *Ledger) MineBlock(ctx context.Context) (walletapi.Block, error) {
	resp, err := l.api.MineBlock(ctx)
	if err != nil {
		l.log.Infow("ledger", "action", "mine block", "ERROR", err)
		l.notify(session.LevelError, walletapi.Message(err, "Failed to mine block"))
		return walletapi.Block{}, fmt.Errorf("mine block: %w", err)
	}

	l.notify(session.LevelSuccess, messageOr(resp.Message, "Block mined successfully!"))

	for _, key := range []query.Key{KeyBlockchain, KeyTransactions, KeyHistory, KeySummary} {
		l.cache.Invalidate(ctx, key)
	}

	return resp.Data, nil
}

// =============================================================================

func (l *Ledger) notify(level session.Level, msg string) {
	l.notifier.Notify(session.Notification{Level: level, Message: msg})
}

func data[T any](s query.State[walletapi.Response[T]], what string) (T, error) {
	if s.Err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", what, s.Err)
	}

	if s.Data == nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", what, ErrUnavailable)
	}

	return s.Data.Data, nil
}

// retry follows the default policy except for unauthorized failures which
// are never retried.
func retry(retries int, err error) bool {
	if walletapi.IsUnauthorized(err) {
		return false
	}
	return query.DefaultRetry(retries, err)
}

func checkStatus(status string) error {
	switch status {
	case walletapi.StatusPending, walletapi.StatusConfirmed:
		return nil
	}
	return fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
}

func messageOr(msg string, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
