package shell

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ardanlabs/walletdash/foundation/format"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
)

func (s *Shell) renderTransactions(txs []walletapi.Transaction) error {
	if len(txs) == 0 {
		fmt.Fprintln(s.out, "No transactions")
		return nil
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tTO\tAMOUNT\tSTATUS\tBLOCK\tDATE")
	for _, tx := range txs {
		block := "-"
		switch {
		case tx.Block.Block != nil:
			block = strconv.Itoa(tx.Block.Block.Index)
		case tx.BlockIndex != nil:
			block = strconv.Itoa(*tx.BlockIndex)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			format.TruncateAddress(tx.ID, 6, 4),
			format.Address(tx.SenderAddress),
			format.Address(tx.RecipientAddress),
			format.Currency(tx.Amount),
			tx.Status,
			block,
			format.Date(format.Millis(tx.Timestamp)),
		)
	}
	return w.Flush()
}

func (s *Shell) renderPagination(p walletapi.Pagination) {
	fmt.Fprintf(s.out, "Page %d of %d (%d total)", p.CurrentPage, p.TotalPages, p.TotalCount)
	if p.HasPrev() {
		fmt.Fprintf(s.out, ", previous offset %d", *p.PrevOffset)
	}
	if p.HasNext() {
		fmt.Fprintf(s.out, ", next offset %d", *p.NextOffset)
	}
	fmt.Fprintln(s.out)
}

// RenderChain writes a page of blocks as a table.
func RenderChain(out io.Writer, chain walletapi.Chain) error {
	if len(chain.Blocks) == 0 {
		fmt.Fprintln(out, "No blocks")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tHASH\tPREVIOUS\tNONCE\tTXS\tDATE")
	for _, blk := range chain.Blocks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			blk.Index,
			format.TruncateAddress(blk.Hash, 10, 6),
			format.TruncateAddress(blk.PreviousHash, 10, 6),
			blk.Nonce,
			blk.Transactions.Len(),
			format.Date(format.Millis(blk.Timestamp)),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	p := chain.Pagination
	fmt.Fprintf(out, "Page %d of %d (%d blocks)\n", p.CurrentPage, p.TotalPages, p.TotalCount)
	return nil
}
