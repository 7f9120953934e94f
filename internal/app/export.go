package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"sales-leaderboard/internal/leaderboard"
)

// Export renders the weekly ranking as CSV and/or a PNG bar chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.Top = a.Config.ResolveTopSellers(opts.Top)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	loc := a.Config.Location()
	at := time.Now().In(loc)
	if opts.Date != nil {
		at = opts.Date.In(loc)
	}

	rows, err := store.WeeklyRanking(ctx, at)
	if err != nil {
		return err
	}

	board := leaderboard.Build(rows, a.boardOptions())
	board.Period = leaderboard.RankingPeriod(at, loc)
	board.WeekOfMonth = leaderboard.WeekOfMonth(at, loc)
	if len(board.Sellers) == 0 {
		a.Logger.Info().Time("period_start", board.Period.Start).Msg("no ranking rows for export window")
		return nil
	}
	a.Logger.Info().Int("sellers", len(board.Sellers)).Int("teams", len(board.Teams)).Msg("exporting ranking")

	if opts.CSVPath != "" {
		if err := writeRankingCSV(opts.CSVPath, board); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRankingPNG(opts.PNGPath, board, opts.Top); err != nil {
			return err
		}
	}

	return nil
}

func writeRankingCSV(path string, board leaderboard.Snapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"position", "seller_id", "seller_name", "team", "deals", "total_sales", "period_start", "period_end"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, seller := range board.Sellers {
		record := []string{
			strconv.Itoa(i + 1),
			seller.ID,
			seller.Name,
			seller.Team,
			strconv.FormatInt(seller.Deals, 10),
			seller.TotalSales.StringFixed(2),
			board.Period.Start.Format(time.RFC3339),
			board.Period.End.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// rankingBars keeps the top sellers with at least one deal.
func rankingBars(board leaderboard.Snapshot, top int) []chart.Value {
	bars := make([]chart.Value, 0, top)
	for _, seller := range board.Sellers {
		if len(bars) == top {
			break
		}
		if seller.Deals <= 0 {
			continue
		}
		bars = append(bars, chart.Value{Label: seller.Name, Value: float64(seller.Deals)})
	}
	return bars
}

func writeRankingPNG(path string, board leaderboard.Snapshot, top int) error {
	bars := rankingBars(board, top)
	if len(bars) == 0 {
		return errors.New("no sellers with deals to chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	graph := chart.BarChart{
		Title:  "Ranking semanal " + board.Period.Start.Format("02/01") + " - " + board.Period.End.Format("02/01"),
		Width:  1280,
		Height: 720,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: 40,
		YAxis: chart.YAxis{
			Name: "Deals",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
