package worker

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
)

// ReportAccount запрашивает сведения о кошельке и печатает их таблицей.
// Ошибки только логируются.
func (w *Worker) ReportAccount(ctx context.Context) {
	info, err := w.coord.AccountInfo(ctx)
	if err != nil {
		w.logger.Warn("failed to get account info", "error", err)
		return
	}

	w.accountMu.Lock()
	defer w.accountMu.Unlock()

	if err := WriteAccountTable(w.accountOut, info); err != nil {
		w.logger.Warn("failed to print account info", "error", err)
	}
}

// WriteAccountTable печатает сведения о кошельке таблицей KEY / VALUE
// с ключами в алфавитном порядке.
func WriteAccountTable(out io.Writer, info map[string]any) error {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "KEY\tVALUE")
	fmt.Fprintln(tw, strings.Repeat("-", 3)+"\t"+strings.Repeat("-", 5))
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%v\n", k, info[k])
	}

	return tw.Flush()
}
