package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Command list for Telegram's menu button (the "/" icon in the chat input).
// Pushed via SetMyCommands on startup.
var botCommands = []tgbotapi.BotCommand{
	{Command: "addlink", Description: "Post a link, optionally with event date and time"},
	{Command: "mylinks", Description: "List your links"},
	{Command: "dellink", Description: "Remove a link and cancel its reminders"},
	{Command: "mystats", Description: "Your activity counters"},
	{Command: "topmsg", Description: "Leaderboard by messages"},
	{Command: "topinterviews", Description: "Leaderboard by link requests"},
	{Command: "chatstats", Description: "Overall chat totals"},
	{Command: "help", Description: "Show available commands"},
}

// setDefaultCommands sets the bot menu for all chats.
func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(botCommands, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}
