package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	maxMessageLen  = 4096
)

// Notifier sends processed-document alerts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the notifier at another Bot API host.
func (n *Notifier) WithAPIBase(base string) *Notifier {
	n.apiBase = strings.TrimRight(base, "/")
	return n
}

// Name identifies the channel in logs.
func (n *Notifier) Name() string { return "telegram" }

// Notify posts the alert as a plain-text message.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatAlert(alert))
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatAlert renders the alert body, truncated to Telegram's message limit.
func FormatAlert(alert domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s update: %s\n%s\n\n", alert.Regulator, alert.Title, alert.URL)
	b.WriteString("Summary:\n")
	b.WriteString(alert.Summary)
	b.WriteString("\n")

	if len(alert.Actions) > 0 {
		b.WriteString("\nActions:\n")
		for _, a := range alert.Actions {
			fmt.Fprintf(&b, "- [%s] %s", a.Function, a.Task)
			if a.DueBy != "" {
				fmt.Fprintf(&b, " (due %s)", a.DueBy)
			}
			b.WriteString("\n")
		}
	}

	msg := b.String()
	if runes := []rune(msg); len(runes) > maxMessageLen {
		msg = string(runes[:maxMessageLen-1]) + "…"
	}
	return msg
}
