package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// snippetLimit caps each field in a posting message.
const snippetLimit = 200

type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

// NewBotWithEndpoint talks to a custom Bot API endpoint, e.g. a local
// telegram-bot-api server. endpoint has the form "https://host/bot%s/%s".
func NewBotWithEndpoint(token, endpoint string, chatID int64, client tgbotapi.HTTPClient) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func (b *Bot) escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// FormatPosting renders one harvested posting as a MarkdownV2 message.
func (b *Bot) FormatPosting(url string, fields map[string]string) string {
	title := fields["job_title"]
	if title == "" {
		title = "New posting"
	}
	msgText := fmt.Sprintf("🔥 *%s*\n", b.escapeMarkdown(truncate(title)))

	lines := []struct {
		icon string
		key  string
	}{
		{"🏢", "company"},
		{"📍", "location"},
		{"💰", "salary"},
		{"🕒", "job_type"},
		{"🛠", "required_skills"},
	}
	for _, l := range lines {
		if v := fields[l.key]; v != "" {
			msgText += fmt.Sprintf("%s %s\n", l.icon, b.escapeMarkdown(truncate(v)))
		}
	}
	msgText += fmt.Sprintf("🔗 [View Job](%s)\n", strings.ReplaceAll(url, ")", "\\)"))
	return msgText
}

func (b *Bot) SendPosting(url string, fields map[string]string) error {
	msg := tgbotapi.NewMessage(b.chatID, b.FormatPosting(url, fields))
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit]) + "…"
}
