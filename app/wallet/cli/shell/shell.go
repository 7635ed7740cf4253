// Package shell provides the interactive wallet dashboard for the terminal.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/foundation/format"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// Prompter reads the lines typed by the user.
type Prompter interface {
	PromptInput(prompt string) (string, error)
	PromptPassword(prompt string) (string, error)
	AppendHistory(command string)
}

// API is the wallet API used by the shell.
type API interface {
	session.API
	ledger.API
}

// Config is the set of collaborators the shell needs.
type Config struct {
	Log      *zap.SugaredLogger
	API      API
	Cache    *query.Cache
	Prompter Prompter
	Out      io.Writer
}

// Shell runs the dashboard commands typed by the user.
type Shell struct {
	log      *zap.SugaredLogger
	prompter Prompter
	out      io.Writer
	ctrl     *session.Controller
	ldg      *ledger.Ledger
	route    string
	moved    bool
}

// New constructs a shell along with the session and ledger it drives.
func New(cfg Config) *Shell {
	s := Shell{
		log:      cfg.Log,
		prompter: cfg.Prompter,
		out:      cfg.Out,
	}

	s.ctrl = session.New(session.Config{
		Log:       cfg.Log,
		API:       cfg.API,
		Cache:     cfg.Cache,
		Notifier:  &s,
		Navigator: &s,
	})

	s.ldg = ledger.New(ledger.Config{
		Log:      cfg.Log,
		API:      cfg.API,
		Cache:    cfg.Cache,
		Notifier: &s,
	})

	s.ctrl.Subscribe(s.ldg.SessionChanged)

	return &s
}

// Notify implements session.Notifier.
func (s *Shell) Notify(n session.Notification) {
	mark := "✓"
	if n.Level == session.LevelError {
		mark = "✗"
	}
	fmt.Fprintf(s.out, "%s %s\n", mark, n.Message)
}

// Navigate implements session.Navigator.
func (s *Shell) Navigate(route string) {
	s.route = route
	s.moved = true
}

// Route returns the page the shell is showing.
func (s *Shell) Route() string {
	return s.route
}

// Run checks for an existing session and then executes commands until
// the user quits or the input ends.
func (s *Shell) Run(ctx context.Context) error {
	s.ctrl.Refresh(ctx)

	if s.ctrl.View().Authenticated {
		s.Navigate(session.RouteDashboard)
	} else {
		s.Navigate(session.RouteLogin)
	}
	s.show(ctx)

	for {
		line, err := s.prompter.PromptInput(s.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("prompt: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.prompter.AppendHistory(line)

		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
}

// Exec executes a single command line. It reports true when the user
// asked to quit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]

	cmd, exists := commands[name]
	if !exists {
		fmt.Fprintf(s.out, "✗ unknown command %q, type help for the list\n", name)
		return false
	}

	if cmd.quit {
		return true
	}

	if cmd.protected && !s.ctrl.View().Authenticated {
		fmt.Fprintln(s.out, "✗ Please login first")
		return false
	}

	if err := cmd.run(s, ctx, args); err != nil {
		s.log.Infow("shell", "command", name, "ERROR", err)
		s.failed(err)
	}

	s.show(ctx)

	return false
}

// =============================================================================

// show renders the page the session navigated to since the last call.
func (s *Shell) show(ctx context.Context) {
	if !s.moved {
		return
	}
	s.moved = false

	switch s.route {
	case session.RouteDashboard:
		if err := s.dashboard(ctx, nil); err != nil {
			s.failed(err)
		}

	case session.RouteLogin:
		fmt.Fprintln(s.out, "Not logged in. Use login or register.")
	}
}

func (s *Shell) prompt() string {
	v := s.ctrl.View()
	if v.Authenticated && v.WalletAddress != "" {
		return fmt.Sprintf("wallet(%s)> ", format.Address(v.WalletAddress))
	}
	return "wallet> "
}

// failed prints read failures. Mutation failures were already notified.
func (s *Shell) failed(err error) {
	if isMutation(err) {
		return
	}
	fmt.Fprintf(s.out, "✗ %s\n", walletapi.Message(err, err.Error()))
}

// mutationError marks an error the session or ledger already notified.
type mutationError struct {
	err error
}

func (e mutationError) Error() string { return e.err.Error() }
func (e mutationError) Unwrap() error { return e.err }

func notified(err error) error {
	if err == nil {
		return nil
	}
	return mutationError{err: err}
}

func isMutation(err error) bool {
	var me mutationError
	return errors.As(err, &me)
}

// =============================================================================

func intArg(args []string, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}

	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}

	return n, nil
}
