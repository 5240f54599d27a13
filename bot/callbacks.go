package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"linkbot/entity"
	"linkbot/lib/sl"
)

// Callback data prefix for the "get link" button. Telegram limits callback
// data to 64 bytes, so the prefix is a single letter: "g:<link_id>".
const cbGetLink = string(entity.ActionGetLink) + ":"

// onGetLinkCallback handles presses of the "get link" button under an
// announcement. The link goes to the user's private chat; the button press
// is answered either way so the loading spinner disappears.
func (t *TgBot) onGetLinkCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	userId := cq.From.Id

	cb, err := entity.ParseCallback(cq.Data)
	if err != nil {
		t.log.Warn("parsing callback data", sl.Err(err))
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Invalid button"})
		return nil
	}

	// The message the button lives on; lets the core strip the control
	// when the link cannot be served anymore.
	var origin entity.ChatRef
	if msg := cq.Message; msg != nil {
		origin = entity.ChatRef{ChatId: msg.GetChat().Id, MessageId: msg.GetMessageId()}
	}

	switch cb.Action {
	case entity.ActionGetLink:
		ok, msg := t.core.DeliverLink(cb.LinkId, userId, userDisplay(&cq.From), origin)
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{
			Text:      msg,
			ShowAlert: !ok,
		})
	default:
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Unknown action"})
	}
	return nil
}
