package cmd

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ethereum/go-ethereum/console/prompt"
	"github.com/spf13/cobra"
)

var username string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new user.",
	RunE:  registerRun,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&username, "username", "n", "", "Name of the new user.")
}

func registerRun(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cln, err := newClient(log)
	if err != nil {
		return err
	}

	if username == "" {
		username, err = prompt.Stdin.PromptInput("Username: ")
		if err != nil {
			return err
		}
		username = strings.TrimSpace(username)
	}

	password, err := prompt.Stdin.PromptPassword("Password: ")
	if err != nil {
		return err
	}

	ctrl := session.New(session.Config{
		Log:       log,
		API:       cln,
		Cache:     newCache(),
		Notifier:  printer{cmd: cmd},
		Navigator: printer{cmd: cmd},
	})

	if err := ctrl.Register(cmd.Context(), username, password); err != nil {
		return fmt.Errorf("register %q: %w", username, errMessage(err))
	}

	return nil
}

// printer writes the notifications of the one-shot commands.
type printer struct {
	cmd *cobra.Command
}

func (p printer) Notify(n session.Notification) {
	mark := "✓"
	if n.Level == session.LevelError {
		mark = "✗"
	}
	p.cmd.Printf("%s %s\n", mark, n.Message)
}

func (p printer) Navigate(route string) {}

// errMessage replaces an API error with its user facing message.
func errMessage(err error) error {
	return fmt.Errorf("%s", walletapi.Message(err, err.Error()))
}
