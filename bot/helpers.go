package bot

import (
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"linkbot/lib/sl"
)

// plainResponse sends a MarkdownV2 message to a chat, falling back to an
// unformatted send when the markup is rejected.
func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

// replyResponse answers in the chat the update came from, without markup.
func (t *TgBot) replyResponse(ctx *ext.Context, text string) {
	if text == "" {
		return
	}
	chatId := ctx.EffectiveChat.Id
	opts := &tgbotapi.SendMessageOpts{}
	if msg := ctx.EffectiveMessage; msg != nil && msg.MessageThreadId != 0 {
		opts.MessageThreadId = msg.MessageThreadId
	}
	_, err := t.api.SendMessage(chatId, text, opts)
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending reply", sl.Err(err))
	}
}

// Sanitize escapes MarkdownV2 reserved characters in user-supplied text.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}
	return sanitized
}

// userDisplay returns a human readable name for stats and announcements:
// @username when set, otherwise the first and last name.
func userDisplay(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}
