package cmd

import (
	"github.com/ardanlabs/walletdash/app/wallet/cli/shell"
	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/spf13/cobra"
)

var filter walletapi.ChainFilter

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print a page of the blockchain.",
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().StringVar(&filter.Hash, "hash", "", "Hash of the block to find.")
	chainCmd.Flags().StringVar(&filter.Date, "date", "", "Date of the blocks to find, as YYYY-MM-DD.")
	chainCmd.Flags().IntVar(&filter.Offset, "offset", 0, "Number of blocks to skip.")
	chainCmd.Flags().IntVar(&filter.Limit, "limit", 10, "Number of blocks to print.")
}

func chainRun(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cln, err := newClient(log)
	if err != nil {
		return err
	}

	ldg := ledger.New(ledger.Config{
		Log:      log,
		API:      cln,
		Cache:    newCache(),
		Notifier: printer{cmd: cmd},
	})

	chain, err := ldg.Chain(cmd.Context(), filter)
	if err != nil {
		return errMessage(err)
	}

	return shell.RenderChain(cmd.OutOrStdout(), chain)
}
