package cmd

import (
	"strings"

	"github.com/ardanlabs/walletdash/app/wallet/cli/shell"
	"github.com/ethereum/go-ethereum/console/prompt"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive dashboard.",
	RunE:  shellRun,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func shellRun(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cln, err := newClient(log)
	if err != nil {
		return err
	}

	prompt.Stdin.SetWordCompleter(complete)

	sh := shell.New(shell.Config{
		Log:      log,
		API:      cln,
		Cache:    newCache(),
		Prompter: prompt.Stdin,
		Out:      cmd.OutOrStdout(),
	})

	cmd.Printf("Wallet dashboard for %s, type help for the list of commands.\n", cln.BaseURL())

	return sh.Run(cmd.Context())
}

// complete completes the command names of the shell.
func complete(line string, pos int) (string, []string, string) {
	head, tail := line[:pos], line[pos:]
	if strings.Contains(head, " ") {
		return head, nil, tail
	}

	var names []string
	for _, name := range shell.Commands() {
		if strings.HasPrefix(name, head) {
			names = append(names, name)
		}
	}

	return "", names, tail
}
