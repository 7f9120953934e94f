package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sales-leaderboard/internal/realtime"
	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/version"
)

// SimulateSale 注入一条测试销售事件，由正在运行的服务完成播报。
// With a server URL the sale goes through the HTTP endpoint; otherwise it is published on the
// NOTIFY channel the listener subscribes to.
func (a *App) SimulateSale(ctx context.Context, opts SimulateOptions) error {
	value := sales.TextValue(opts.Value)
	if _, err := sales.ParseValue(value); err != nil {
		return fmt.Errorf("invalid --value: %w", err)
	}

	if opts.ServerURL != "" {
		return a.simulateHTTP(ctx, opts)
	}

	ev := sales.NewSyntheticEvent(a.Config.Alerting.SyntheticPrefix, sales.SyntheticSale{
		SellerName:  opts.SellerName,
		ProcessType: opts.ProcessType,
		EntryValue:  value,
	})
	payload, err := realtime.Encode(ev)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; pass --server to post to a running instance")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.Notify(ctx, a.Config.Realtime.Channel, string(payload)); err != nil {
		return err
	}
	a.Logger.Info().Str("event_id", ev.EventID).Str("seller_id", ev.SellerID).
		Str("channel", a.Config.Realtime.Channel).Msg("模拟销售已发布")
	return nil
}

func (a *App) simulateHTTP(ctx context.Context, opts SimulateOptions) error {
	body, err := json.Marshal(map[string]string{
		"value":       opts.Value,
		"sellerName":  opts.SellerName,
		"processType": opts.ProcessType,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(opts.ServerURL, "/") + "/api/sales/simulate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create simulate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post simulated sale: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		EventID string `json:"eventId"`
		Outcome string `json:"outcome"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("simulate endpoint returned %d: %s", resp.StatusCode, result.Error)
	}
	a.Logger.Info().Str("event_id", result.EventID).Str("outcome", result.Outcome).Msg("模拟销售已提交")
	return nil
}
