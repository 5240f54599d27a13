// Package bot implements the Telegram transport for the announcement bot.
//
// Architecture overview:
//   - tgbot.go     — TgBot struct, lifecycle (Start/Stop), Core interface
//   - commands.go  — User commands: /start, /addlink, /mylinks, /dellink,
//     /mystats, /topmsg, /topinterviews, /chatstats, /help
//   - callbacks.go — Inline "get link" button handling
//   - publisher.go — Outbound surface used by the core: announcements,
//     reminders, private link delivery, retraction
//   - group.go     — Group chat activity logging
//   - menus.go     — Command menu via Telegram's SetMyCommands API
//   - helpers.go   — Sanitize, plainResponse, shared formatting
//
// The bot owns no business logic: every update is translated into a call
// on the Core interface, and the core calls back through the Publisher
// methods in publisher.go to reach Telegram.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"linkbot/entity"
	"linkbot/lib/sl"
)

// BotConfig holds Telegram-specific configuration loaded from the YAML
// config file.
type BotConfig struct {
	GroupChatId int64
	TopicId     int64
	AdminId     int64
	Location    *time.Location
}

// Core defines the operations the transport depends on.
// Implemented by impl/core.Core.
type Core interface {
	AddLink(ownerId int64, ownerName, url, text string, eventTime *time.Time, display string) (*entity.Link, error)
	DeliverLink(linkId, userId int64, username string, origin entity.ChatRef) (bool, string)
	DeliverLinkByToken(token string, userId int64, username string) (bool, string)
	DeactivateLink(id int64) (bool, error)
	GetLinkInfo(id int64) (*entity.Link, error)
	LinksByOwner(ownerId int64) ([]*entity.Link, error)
	RecentRequests(limit int) ([]*entity.Request, error)
	MyStats(userId int64) (*entity.UserStats, error)
	TopBy(metric entity.StatsMetric, limit int) ([]*entity.UserStats, error)
	ChatTotals() (*entity.ChatTotals, error)
	RecordGroupMessage(msg *entity.GroupMessage)
}

// TgBot is the central Telegram bot instance.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	updater *ext.Updater
	config  BotConfig
}

func NewTgBot(apiKey string, core Core, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		core:   core,
		config: cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// User commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("addlink", t.addLink))
	dispatcher.AddHandler(handlers.NewCommand("mylinks", t.myLinks))
	dispatcher.AddHandler(handlers.NewCommand("dellink", t.delLink))
	dispatcher.AddHandler(handlers.NewCommand("mystats", t.myStats))
	dispatcher.AddHandler(handlers.NewCommand("topmsg", t.topMessages))
	dispatcher.AddHandler(handlers.NewCommand("topinterviews", t.topInterviews))
	dispatcher.AddHandler(handlers.NewCommand("chatstats", t.chatStats))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	// Admin commands
	dispatcher.AddHandler(handlers.NewCommand("showrequests", t.showRequests))

	// Callback query handlers
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbGetLink), t.onGetLinkCallback))

	// Group chat activity logging, commands excluded by handler order
	groupMessages := handlers.NewMessage(t.isGroupText, t.onGroupMessage)
	groupMessages.AllowEdited = true
	dispatcher.AddHandler(groupMessages)

	t.setDefaultCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.Info("telegram bot polling started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// SendAlert implements the logger.Notifier interface: high-severity log
// records are mirrored to the admin chat.
func (t *TgBot) SendAlert(msg string) {
	if t.config.AdminId == 0 || msg == "" {
		return
	}
	_, err := t.api.SendMessage(t.config.AdminId, msg, nil)
	if err != nil {
		t.log.Warn("sending admin alert", sl.Err(err))
	}
}
