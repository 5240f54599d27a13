package bot

import (
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"linkbot/entity"
)

// isGroupText matches plain text messages in the configured group chat.
// Commands are handled by the command handlers registered before this one
// and are excluded here so they do not inflate activity counters.
func (t *TgBot) isGroupText(msg *tgbotapi.Message) bool {
	if msg == nil || msg.Chat.Id != t.config.GroupChatId {
		return false
	}
	if msg.Text == "" {
		return false
	}
	return !strings.HasPrefix(msg.Text, "/")
}

// onGroupMessage records one group chat message for activity stats.
// Recording is fire-and-forget: a storage hiccup must never block the
// update pipeline.
func (t *TgBot) onGroupMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	user := ctx.EffectiveUser
	if msg == nil || user == nil || user.IsBot {
		return nil
	}

	t.core.RecordGroupMessage(&entity.GroupMessage{
		ChatId:    msg.Chat.Id,
		MessageId: msg.MessageId,
		UserId:    user.Id,
		Username:  userDisplay(user),
		Text:      msg.Text,
		Edited:    msg.EditDate != 0,
		Timestamp: time.Unix(msg.Date, 0).UTC(),
	})
	return nil
}
