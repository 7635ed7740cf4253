package shell

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ardanlabs/walletdash/foundation/format"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
)

type command struct {
	usage     string
	help      string
	protected bool
	quit      bool
	run       func(s *Shell, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":      {help: "Show the list of commands.", run: (*Shell).help},
		"status":    {help: "Show the session.", run: (*Shell).status},
		"login":     {help: "Login with a username and password.", run: (*Shell).login},
		"register":  {help: "Create a new user.", run: (*Shell).register},
		"logout":    {help: "End the session.", protected: true, run: (*Shell).logout},
		"dashboard": {help: "Show the wallet and its summary.", protected: true, run: (*Shell).dashboard},
		"txs":       {usage: "[pending|confirmed] [limit]", help: "List transactions by status.", protected: true, run: (*Shell).transactions},
		"history":   {usage: "[pending|confirmed] [offset] [limit]", help: "Page through the transaction history.", protected: true, run: (*Shell).history},
		"send":      {usage: "<address> <amount>", help: "Send an amount to a recipient.", protected: true, run: (*Shell).send},
		"mine":      {help: "Mine the pending transactions into a block.", protected: true, run: (*Shell).mine},
		"chain":     {usage: "[hash=...] [date=YYYY-MM-DD] [offset=n] [limit=n]", help: "Explore the blockchain.", protected: true, run: (*Shell).chain},
		"exit":      {help: "Leave the shell.", quit: true},
		"quit":      {help: "Leave the shell.", quit: true},
	}
}

// Commands returns the sorted names of the shell commands.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================

func (s *Shell) help(ctx context.Context, args []string) error {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, name := range Commands() {
		cmd := commands[name]
		fmt.Fprintf(w, "%s %s\t%s\n", name, cmd.usage, cmd.help)
	}
	return w.Flush()
}

func (s *Shell) status(ctx context.Context, args []string) error {
	v := s.ctrl.View()

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Phase\t%s\n", v.Phase)
	fmt.Fprintf(w, "Authenticated\t%t\n", v.Authenticated)
	if v.WalletAddress != "" {
		fmt.Fprintf(w, "Wallet\t%s\n", v.WalletAddress)
	}
	fmt.Fprintf(w, "Page\t%s\n", s.route)
	return w.Flush()
}

func (s *Shell) login(ctx context.Context, args []string) error {
	username, password, err := s.credentials(args)
	if err != nil {
		return err
	}
	return notified(s.ctrl.Login(ctx, username, password))
}

func (s *Shell) register(ctx context.Context, args []string) error {
	username, password, err := s.credentials(args)
	if err != nil {
		return err
	}
	return notified(s.ctrl.Register(ctx, username, password))
}

func (s *Shell) logout(ctx context.Context, args []string) error {
	return notified(s.ctrl.Logout(ctx))
}

func (s *Shell) credentials(args []string) (string, string, error) {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		v, err := s.prompter.PromptInput("Username: ")
		if err != nil {
			return "", "", err
		}
		username = strings.TrimSpace(v)
	}

	password, err := s.prompter.PromptPassword("Password: ")
	if err != nil {
		return "", "", err
	}

	return username, password, nil
}

func (s *Shell) dashboard(ctx context.Context, args []string) error {
	wal, err := s.ctrl.Wallet()
	if err != nil {
		return err
	}

	sum, err := s.ldg.Summary(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Wallet\t%s\n", wal.WalletAddress)
	fmt.Fprintf(w, "Balance\t%s\n", format.Currency(wal.Balance))
	fmt.Fprintf(w, "Available\t%s\n", format.Currency(sum.AvailableBalance))
	fmt.Fprintf(w, "Pending\t%s (%d transactions)\n", format.Currency(sum.PendingBalance), sum.PendingTransactionCount)
	fmt.Fprintf(w, "Transactions\t%d\n", sum.TotalTransactionCount)
	return w.Flush()
}

func (s *Shell) transactions(ctx context.Context, args []string) error {
	status := walletapi.StatusPending
	if len(args) > 0 {
		status = args[0]
	}

	limit, err := intArg(args, 1, 10)
	if err != nil {
		return err
	}

	txs, err := s.ldg.TransactionsByStatus(ctx, status, limit)
	if err != nil {
		return err
	}

	return s.renderTransactions(txs)
}

func (s *Shell) history(ctx context.Context, args []string) error {
	status := walletapi.StatusConfirmed
	if len(args) > 0 {
		status = args[0]
	}

	offset, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}

	limit, err := intArg(args, 2, 10)
	if err != nil {
		return err
	}

	hst, err := s.ldg.History(ctx, status, offset, limit)
	if err != nil {
		return err
	}

	if err := s.renderTransactions(hst.Transactions); err != nil {
		return err
	}
	s.renderPagination(hst.Pagination)

	return nil
}

func (s *Shell) send(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: send %s", commands["send"].usage)
	}

	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}

	return notified(s.ldg.CreateTransaction(ctx, args[0], amount))
}

func (s *Shell) mine(ctx context.Context, args []string) error {
	blk, err := s.ldg.MineBlock(ctx)
	if err != nil {
		return notified(err)
	}

	fmt.Fprintf(s.out, "Block %d %s with %d transactions\n", blk.Index, format.TruncateAddress(blk.Hash, 10, 6), blk.Transactions.Len())
	return nil
}

func (s *Shell) chain(ctx context.Context, args []string) error {
	filter, err := ParseFilter(args)
	if err != nil {
		return err
	}

	chain, err := s.ldg.Chain(ctx, filter)
	if err != nil {
		return err
	}

	return RenderChain(s.out, chain)
}

// =============================================================================

// ParseFilter builds a chain filter from key=value arguments.
func ParseFilter(args []string) (walletapi.ChainFilter, error) {
	var filter walletapi.ChainFilter

	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return walletapi.ChainFilter{}, fmt.Errorf("argument %q is not key=value", arg)
		}

		switch key {
		case "hash":
			filter.Hash = value
		case "date":
			filter.Date = value
		case "offset", "limit":
			n, err := strconv.Atoi(value)
			if err != nil {
				return walletapi.ChainFilter{}, fmt.Errorf("invalid %s %q", key, value)
			}
			if key == "offset" {
				filter.Offset = n
			} else {
				filter.Limit = n
			}
		default:
			return walletapi.ChainFilter{}, fmt.Errorf("unknown filter %q", key)
		}
	}

	return filter, nil
}
