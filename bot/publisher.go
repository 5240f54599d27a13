package bot

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"linkbot/entity"
	"linkbot/lib/sl"
)

// Short intro lines prepended to privately delivered links.
var deliveryPhrases = []string{
	"Here you go:",
	"As requested:",
	"Catch!",
	"There it is:",
}

func getLinkKeyboard(linkId int64) tgbotapi.InlineKeyboardMarkup {
	data := entity.Callback{Action: entity.ActionGetLink, LinkId: linkId}.Pack()
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "🔗 Get link", CallbackData: data}},
		},
	}
}

func renderAnnouncement(link *entity.Link) string {
	var sb strings.Builder
	sb.WriteString("📢 ")
	sb.WriteString(link.AnnouncementText)
	if link.OwnerName != "" {
		sb.WriteString(fmt.Sprintf("\n\nAdded by: %s", link.OwnerName))
	}
	if link.EventTimeDisplay != "" {
		sb.WriteString(fmt.Sprintf("\n📅 Date and time: %s", link.EventTimeDisplay))
	}
	return sb.String()
}

// Publish posts the announcement with its "get link" button to the group
// chat. Exactly one outbound message per call; the caller records the
// returned reference in the store.
func (t *TgBot) Publish(link *entity.Link) (entity.ChatRef, error) {
	msg, err := t.api.SendMessage(t.config.GroupChatId, renderAnnouncement(link), &tgbotapi.SendMessageOpts{
		MessageThreadId:    t.config.TopicId,
		ReplyMarkup:        getLinkKeyboard(link.Id),
		LinkPreviewOptions: &tgbotapi.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil {
		return entity.ChatRef{}, classifySendError(err)
	}
	return entity.ChatRef{ChatId: msg.Chat.Id, MessageId: msg.MessageId}, nil
}

// SendReminder posts the reminder variant of the announcement, with the
// same button. Ordinary delivery failures are reported as false, never as
// a panic or a raised error; the caller decides how loudly to log.
func (t *TgBot) SendReminder(link *entity.Link, minutes int) bool {
	text := fmt.Sprintf("🕒 Reminder!\nIn %d minutes: %s\n\n%s",
		minutes, link.EventTimeDisplay, renderAnnouncement(link))

	_, err := t.api.SendMessage(t.config.GroupChatId, text, &tgbotapi.SendMessageOpts{
		MessageThreadId:    t.config.TopicId,
		ReplyMarkup:        getLinkKeyboard(link.Id),
		LinkPreviewOptions: &tgbotapi.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil {
		t.log.With(
			sl.Link(link.Id),
			slog.Int("minutes", minutes),
		).Warn("sending reminder", sl.Err(err))
		return false
	}
	return true
}

// Retract deletes a posted announcement, best effort. Used to compensate
// when a store update fails after the message already went out.
func (t *TgBot) Retract(ref entity.ChatRef) bool {
	ok, err := t.api.DeleteMessage(ref.ChatId, ref.MessageId, nil)
	if err != nil {
		t.log.With(
			slog.Int64("chat_id", ref.ChatId),
			slog.Int64("message_id", ref.MessageId),
		).Warn("retracting message", sl.Err(err))
		return false
	}
	return ok
}

// DeliverLink sends the URL to the requester in a private chat. Errors are
// classified so the core can tell "user never talked to the bot" apart
// from ordinary delivery failures.
func (t *TgBot) DeliverLink(userId int64, link *entity.Link) error {
	phrase := deliveryPhrases[rand.IntN(len(deliveryPhrases))]
	_, err := t.api.SendMessage(userId, phrase+"\n"+link.Url, nil)
	if err != nil {
		return classifySendError(err)
	}
	return nil
}

// DisableControl strips the inline keyboard from a posted announcement so
// a dead link stops collecting button presses. Best effort.
func (t *TgBot) DisableControl(ref entity.ChatRef) bool {
	_, _, err := t.api.EditMessageReplyMarkup(&tgbotapi.EditMessageReplyMarkupOpts{
		ChatId:      ref.ChatId,
		MessageId:   ref.MessageId,
		ReplyMarkup: tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	})
	if err != nil {
		t.log.With(
			slog.Int64("chat_id", ref.ChatId),
			slog.Int64("message_id", ref.MessageId),
		).Debug("disabling control", sl.Err(err))
		return false
	}
	return true
}

// classifySendError maps Telegram API failures onto the error classes the
// core distinguishes. Telegram reports these conditions only through the
// response description text.
func classifySendError(err error) error {
	desc := strings.ToLower(err.Error())
	switch {
	case strings.Contains(desc, "blocked by the user"),
		strings.Contains(desc, "user not found"),
		strings.Contains(desc, "chat not found"),
		strings.Contains(desc, "can't initiate conversation"),
		strings.Contains(desc, "user is deactivated"):
		return fmt.Errorf("%w: %v", entity.ErrRecipientUnreachable, err)
	case strings.Contains(desc, "not enough rights"),
		strings.Contains(desc, "have no rights"),
		strings.Contains(desc, "forbidden"):
		return fmt.Errorf("%w: %v", entity.ErrPermissionDenied, err)
	case strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message not found"):
		return fmt.Errorf("%w: %v", entity.ErrNotFound, err)
	default:
		return err
	}
}
