package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"DayTradeBot/config"

	"github.com/rs/zerolog"
)

// Notifier pushes protection-level escalations and stop-loss triggers to
// Telegram and Discord webhooks. Channels left unconfigured are skipped;
// delivery failures are logged, never propagated into the cycle.
type Notifier struct {
	cfg    config.AlertConfig
	client *http.Client
	log    zerolog.Logger
}

func NewNotifier(cfg config.AlertConfig, log zerolog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "alerts").Logger(),
	}
}

// Enabled reports whether at least one channel is configured.
func (n *Notifier) Enabled() bool {
	return (n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != "") || n.cfg.DiscordWebhookURL != ""
}

// ProtectionEscalated announces that the market protection level rose.
func (n *Notifier) ProtectionEscalated(ctx context.Context, level string, irq, reduction float64) {
	n.send(ctx, fmt.Sprintf("Protection level %s: IRQ %.3f, reducing positions by %.0f%%", level, irq, reduction*100))
}

// StopLossTriggered announces a forced exit.
func (n *Notifier) StopLossTriggered(ctx context.Context, asset string, lossPct float64) {
	n.send(ctx, fmt.Sprintf("Stop loss %s: %.2f%%", asset, lossPct*100))
}

// TakeProfitTriggered announces a profit-taking exit.
func (n *Notifier) TakeProfitTriggered(ctx context.Context, asset string, gainPct float64) {
	n.send(ctx, fmt.Sprintf("Take profit %s: %+.2f%%", asset, gainPct*100))
}

// CycleCompleted summarizes a finished allocation cycle.
func (n *Notifier) CycleCompleted(ctx context.Context, irq float64, level string, buys, sells int) {
	n.send(ctx, fmt.Sprintf("Cycle done: IRQ %.3f (%s) BUY:%d SELL:%d", irq, level, buys, sells))
}

func (n *Notifier) send(ctx context.Context, message string) {
	if n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != "" {
		n.sendTelegram(ctx, message)
	}
	if n.cfg.DiscordWebhookURL != "" {
		n.sendDiscord(ctx, message)
	}
}

func (n *Notifier) sendTelegram(ctx context.Context, message string) {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBotToken)
	form := url.Values{"chat_id": {n.cfg.TelegramChatID}, "text": {message}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		n.log.Error().Err(err).Msg("telegram request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	n.do(req, "telegram")
}

func (n *Notifier) sendDiscord(ctx context.Context, message string) {
	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.DiscordWebhookURL, bytes.NewReader(body))
	if err != nil {
		n.log.Error().Err(err).Msg("discord request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	n.do(req, "discord")
}

func (n *Notifier) do(req *http.Request, channel string) {
	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Str("channel", channel).Msg("alert delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warn().Int("status", resp.StatusCode).Str("channel", channel).Msg("alert rejected")
	}
}
