// Package alert pushes urgent notices to an operations chat.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"disaster-relief-api-server/config"
)

type Alerter interface {
	Alert(ctx context.Context, text string) error
}

type Nop struct{}

func (Nop) Alert(context.Context, string) error { return nil }

// Telegram posts Markdown messages through the Bot API.
type Telegram struct {
	BaseURL string
	Token   string
	ChatID  string
	Client  *http.Client
}

// NewTelegram returns Nop when the bot is not configured.
func NewTelegram(cfg config.TelegramConfig) Alerter {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		log.Println("[alert] telegram not configured, alerts disabled")
		return Nop{}
	}
	return &Telegram{BaseURL: "https://api.telegram.org", Token: cfg.BotToken, ChatID: cfg.ChatID, Client: http.DefaultClient}
}

func (t *Telegram) Alert(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
