package tracker

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"coin-checkpoints/common"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSummary renders the totals of a finished walk as a table.
func WriteSummary(w io.Writer, stats Stats) error {
	blocks := uint64(0)
	if stats.Height >= stats.StartHeight {
		blocks = stats.Height - stats.StartHeight + 1
	}

	avgAge := "-"
	if blocks > 1 {
		avgAge = common.FormatBlockAge((stats.LastBlockTime - stats.FirstTime) / int64(blocks-1))
	}

	lastBlock := "-"
	if stats.LastBlockTime != 0 {
		lastBlock = time.Unix(stats.LastBlockTime, 0).Format("2006-01-02 15:04:05")
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header([]string{"Item", "Value"})
	if err := table.Bulk([][]string{
		{"Heights", fmt.Sprintf("%d => %d", stats.StartHeight, stats.Height)},
		{"Chain height", strconv.FormatUint(stats.ChainHeight, 10)},
		{"Blocks", common.FormatCount(blocks)},
		{"Transactions", common.FormatCount(stats.TotalTx)},
		{"Average block time", avgAge},
		{"Last block", lastBlock},
	}); err != nil {
		return err
	}
	return table.Render()
}
