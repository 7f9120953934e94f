package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sales-leaderboard/internal/storage"
)

// Show prints the most recently presented alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show presentations")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentPresentations(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no presentations found")
		return nil
	}

	return writePresentations(os.Stdout, records, a.Config.Location())
}

func writePresentations(out io.Writer, records []storage.PresentationRecord, loc *time.Location) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Started\tSeller\tProcess\tValue\tTier\tOutcome")

	for _, rec := range records {
		tier := "-"
		if rec.Tier != nil {
			tier = strconv.Itoa(*rec.Tier)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.StartedAt.In(loc).Format("2006-01-02 15:04:05"),
			sanitizeInline(rec.SellerName),
			sanitizeInline(rec.ProcessType),
			rec.EntryValue.StringFixed(2),
			tier,
			rec.Outcome,
		)
	}

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
