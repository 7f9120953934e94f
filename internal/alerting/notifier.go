package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notification 描述一次上屏的销售播报。
type Notification struct {
	SellerName  string
	ProcessType string
	EntryValue  decimal.Decimal
	At          time.Time
}

// Notifier announces presentations outside the TV screens.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier posts sale announcements through the Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	location *time.Location
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 播报器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, loc *time.Location, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if loc == nil {
		loc = time.UTC
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		location: loc,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered announcement.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note, n.location),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return fmt.Errorf("telegram returned ok=false: %s", result.Description)
	}

	n.logger.Info().Str("seller", note.SellerName).
		Str("entry_value", note.EntryValue.StringFixed(2)).
		Msg("sale announced (Telegram)")
	return nil
}

func renderMessage(note Notification, loc *time.Location) string {
	builder := strings.Builder{}
	builder.WriteString("[Nova Venda]\n")
	builder.WriteString(fmt.Sprintf("Vendedor: %s\n", note.SellerName))
	if note.ProcessType != "" {
		builder.WriteString(fmt.Sprintf("Processo: %s\n", note.ProcessType))
	}
	builder.WriteString(fmt.Sprintf("Valor: %s\n", formatBRL(note.EntryValue)))
	if !note.At.IsZero() {
		builder.WriteString(fmt.Sprintf("Hora: %s\n", note.At.In(loc).Format("02/01 15:04")))
	}
	return builder.String()
}

// formatBRL renders 1234.5 as "R$ 1.234,50".
func formatBRL(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), frac)
}

var _ Notifier = (*TelegramNotifier)(nil)
