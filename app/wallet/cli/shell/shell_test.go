package shell_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/walletdash/app/wallet/cli/shell"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type prompter struct {
	lines     []string
	passwords []string
	history   []string
}

func (p *prompter) PromptInput(prompt string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *prompter) PromptPassword(prompt string) (string, error) {
	if len(p.passwords) == 0 {
		return "", io.EOF
	}
	pass := p.passwords[0]
	p.passwords = p.passwords[1:]
	return pass, nil
}

func (p *prompter) AppendHistory(command string) {
	p.history = append(p.history, command)
}

func newWalletAPI(sent *int) *httptest.Server {
	mux := http.NewServeMux()

	const cookie = "wallet_session"

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if _, err := r.Cookie(cookie); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(walletapi.Response[any]{Status: 401, Message: "Session expired"})
			return false
		}
		return true
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: cookie, Value: "bill", Path: "/"})
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.AuthData]{Success: true, Status: 200, Message: "Welcome back"})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: cookie, Value: "", Path: "/", MaxAge: -1})
		json.NewEncoder(w).Encode(walletapi.Response[any]{Success: true, Status: 200})
	})

	wallet := func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.Wallet]{
			Success: true,
			Status:  200,
			Data:    walletapi.Wallet{Balance: 1234.5, WalletAddress: "0x1234567890abcdef"},
		})
	}
	mux.HandleFunc("GET /transaction/wallet", wallet)
	mux.HandleFunc("GET /transaction/pending/balance", wallet)

	mux.HandleFunc("GET /transaction/summary", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.Summary]{
			Success: true,
			Status:  200,
			Data:    walletapi.Summary{AvailableBalance: 1234.5, PendingTransactionCount: 2, TotalTransactionCount: 7},
		})
	})

	mux.HandleFunc("POST /transaction", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		*sent++
		json.NewEncoder(w).Encode(walletapi.Response[any]{Success: true, Status: 201, Message: "Sent"})
	})

	return httptest.NewServer(mux)
}

func TestShell(t *testing.T) {
	var sent int
	srv := newWalletAPI(&sent)
	defer srv.Close()

	api, err := walletapi.New(srv.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a client: %v", failed, err)
	}

	p := prompter{
		lines: []string{
			"send 0xdef 5",
			"login bill",
			"send 0xdef 0",
			"send 0xdef 5",
			"bogus",
			"logout",
			"exit",
			"status",
		},
		passwords: []string{"secret"},
	}

	var out bytes.Buffer
	sh := shell.New(shell.Config{
		Log:      zap.NewNop().Sugar(),
		API:      api,
		Cache:    query.NewCache(query.WithDelay(func(int) time.Duration { return 0 })),
		Prompter: &p,
		Out:      &out,
	})

	t.Log("Given the need to drive the dashboard from the terminal.")
	{
		if err := sh.Run(t.Context()); err != nil {
			t.Fatalf("\t%s\tShould be able to run the shell: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to run the shell.", success)

		got := out.String()

		for _, exp := range []string{
			"Not logged in. Use login or register.",
			"✗ Please login first",
			"✓ Welcome back",
			"0x1234567890abcdef",
			"1,234.5",
			"✓ Sent",
			`✗ unknown command "bogus"`,
			"✓ Logged out successfully",
		} {
			if !strings.Contains(got, exp) {
				t.Logf("\t%s\tgot: %s", failed, got)
				t.Fatalf("\t%s\tShould print %q.", failed, exp)
			}
			t.Logf("\t%s\tShould print %q.", success, exp)
		}

		if sent != 1 {
			t.Fatalf("\t%s\tShould send only the valid transaction: %d", failed, sent)
		}
		t.Logf("\t%s\tShould send only the valid transaction.", success)

		if len(p.lines) != 1 {
			t.Fatalf("\t%s\tShould stop reading at exit: %v", failed, p.lines)
		}
		t.Logf("\t%s\tShould stop reading at exit.", success)
	}
}

func TestParseFilter(t *testing.T) {
	type table struct {
		name string
		args []string
		exp  walletapi.ChainFilter
		fail bool
	}

	tt := []table{
		{name: "empty", args: nil, exp: walletapi.ChainFilter{}},
		{name: "all", args: []string{"hash=h1", "date=2024-01-31", "offset=10", "limit=5"}, exp: walletapi.ChainFilter{Hash: "h1", Date: "2024-01-31", Offset: 10, Limit: 5}},
		{name: "no value", args: []string{"hash"}, fail: true},
		{name: "unknown", args: []string{"color=red"}, fail: true},
		{name: "bad number", args: []string{"limit=ten"}, fail: true},
	}

	t.Log("Given the need to parse the blockchain filter.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got, err := shell.ParseFilter(tst.args)
				if tst.fail {
					if err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail to parse.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail to parse.", success, testID)
					return
				}

				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to parse: %v", failed, testID, err)
				}

				if got != tst.exp {
					t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %+v", failed, testID, tst.exp)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected filter.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected filter.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}
