package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"linkbot/entity"
	"linkbot/lib/sl"
	"linkbot/lib/timeparse"
)

var (
	urlRegex  = regexp.MustCompile(`^https?://\S+$`)
	dateRegex = regexp.MustCompile(`^\d{1,2}\.\d{1,2}(\.\d{2,4})?$`)
	timeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

const addLinkUsage = "Add a link after the command.\n" +
	"Example: /addlink https://example.com [DD.MM] [HH:MM] [announcement text]"

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id

	// Deep link: /start <token> delivers a specific link directly.
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) > 1 {
		_, msg := t.core.DeliverLinkByToken(args[1], userId, userDisplay(ctx.EffectiveUser))
		t.plainResponse(userId, Sanitize(msg))
		return nil
	}

	t.plainResponse(userId,
		"Hi\\! I post announcement links to the group and send reminders before events\\.\n"+
			"Use /addlink to submit one, or press the button under an announcement to receive its link here\\.")
	return nil
}

// addLink handles /addlink <url> [DD.MM] [HH:MM] [text...].
// Malformed input is rejected before anything touches the store.
func (t *TgBot) addLink(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	user := ctx.EffectiveUser

	parts := strings.Fields(ctx.EffectiveMessage.Text)[1:]
	if len(parts) == 0 {
		t.replyResponse(ctx, addLinkUsage)
		return nil
	}

	if !urlRegex.MatchString(parts[0]) {
		t.replyResponse(ctx, "Invalid link format. The link must start with http:// or https://")
		return nil
	}
	url := parts[0]
	rest := parts[1:]

	var dateStr, timeStr string
	if len(rest) > 0 && dateRegex.MatchString(rest[0]) {
		dateStr = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && timeRegex.MatchString(rest[0]) {
		timeStr = rest[0]
		rest = rest[1:]
	}
	if dateStr != "" && timeStr == "" {
		t.replyResponse(ctx, "A date needs a time as well: DD.MM HH:MM. Or leave both out.")
		return nil
	}
	text := strings.Join(rest, " ")

	var eventTime *time.Time
	var display string
	if timeStr != "" {
		parsed, disp, err := timeparse.ParseEvent(dateStr, timeStr, time.Now().UTC(), t.config.Location)
		if errors.Is(err, timeparse.ErrPastTime) {
			t.replyResponse(ctx, "The event date and time have already passed.")
			return nil
		}
		if err != nil {
			t.replyResponse(ctx, "Invalid date or time format. Use DD.MM(.YYYY) and HH:MM.")
			return nil
		}
		eventTime = &parsed
		display = disp
	}

	link, err := t.core.AddLink(user.Id, userDisplay(user), url, text, eventTime, display)
	if err != nil {
		t.log.With(slog.Int64("chat_id", chatId)).Error("adding link", sl.Err(err))
		t.replyResponse(ctx, "Failed to save and post the link. Please try again later.")
		return nil
	}

	reply := "Link added and posted to the group!"
	if display != "" {
		reply += fmt.Sprintf(" Reminders are set for %s.", display)
	}
	t.replyResponse(ctx, reply)

	t.log.With(
		sl.Link(link.Id),
		slog.Int64("user_id", user.Id),
	).Info("link added via command")
	return nil
}

func (t *TgBot) myLinks(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id

	links, err := t.core.LinksByOwner(userId)
	if err != nil {
		t.log.With(slog.Int64("user_id", userId)).Error("listing links", sl.Err(err))
		t.replyResponse(ctx, "Failed to load your links. Please try again later.")
		return nil
	}
	if len(links) == 0 {
		t.replyResponse(ctx, "You have no active links. Add one with /addlink.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Your links:\n")
	for _, link := range links {
		sb.WriteString(fmt.Sprintf("\n#%d %s [%s]", link.Id, link.Url, link.State))
		if link.EventTimeDisplay != "" {
			sb.WriteString(fmt.Sprintf(" 📅 %s", link.EventTimeDisplay))
		}
	}
	sb.WriteString("\n\nRemove one with /dellink <id>.")
	t.replyResponse(ctx, sb.String())
	return nil
}

// delLink handles /dellink <id>: deactivates the link, cancels its
// reminders and removes the posted announcement. Owners can remove their
// own links, the admin can remove any.
func (t *TgBot) delLink(_ *tgbotapi.Bot, ctx *ext.Context) error {
	user := ctx.EffectiveUser

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.replyResponse(ctx, "Specify the link id: /dellink <id>. See /mylinks.")
		return nil
	}
	linkId, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		t.replyResponse(ctx, "Invalid link id.")
		return nil
	}

	link, err := t.core.GetLinkInfo(linkId)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			t.replyResponse(ctx, "No such link.")
			return nil
		}
		t.log.With(sl.Link(linkId)).Error("loading link", sl.Err(err))
		t.replyResponse(ctx, "Failed to load the link. Please try again later.")
		return nil
	}
	if link.OwnerId != user.Id && user.Id != t.config.AdminId {
		t.replyResponse(ctx, "You can only remove your own links.")
		return nil
	}

	ok, err := t.core.DeactivateLink(linkId)
	if err != nil {
		t.log.With(sl.Link(linkId)).Error("deactivating link", sl.Err(err))
		t.replyResponse(ctx, "Failed to remove the link. Please try again later.")
		return nil
	}
	if !ok {
		t.replyResponse(ctx, "The link is already removed.")
		return nil
	}

	if !link.PostedRef().IsZero() {
		t.Retract(link.PostedRef())
	}

	t.replyResponse(ctx, "Link removed, reminders cancelled.")
	return nil
}

func (t *TgBot) myStats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	userId := ctx.EffectiveUser.Id

	stats, err := t.core.MyStats(userId)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			t.replyResponse(ctx, "No stats for you yet. Write something in the group or request a link.")
			return nil
		}
		t.log.With(slog.Int64("user_id", userId)).Error("loading stats", sl.Err(err))
		t.replyResponse(ctx, "Failed to load stats. Please try again later.")
		return nil
	}

	t.replyResponse(ctx, fmt.Sprintf(
		"Your stats:\n"+
			" - Group messages: %d\n"+
			" - Link requests: %d\n"+
			" - First seen: %s\n"+
			" - Last activity: %s",
		stats.MessageCount,
		stats.RequestCount,
		stats.FirstSeen.Format("2006-01-02 15:04"),
		stats.LastSeen.Format("2006-01-02 15:04"),
	))
	return nil
}

func (t *TgBot) topMessages(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.sendLeaderboard(ctx, entity.MetricMessages, "Top users by messages:")
	return nil
}

func (t *TgBot) topInterviews(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.sendLeaderboard(ctx, entity.MetricRequests, "Top users by link requests:")
	return nil
}

func (t *TgBot) sendLeaderboard(ctx *ext.Context, metric entity.StatsMetric, title string) {
	top, err := t.core.TopBy(metric, 10)
	if err != nil {
		t.log.Error("loading leaderboard", slog.String("metric", string(metric)), sl.Err(err))
		t.replyResponse(ctx, "Failed to load the leaderboard. Please try again later.")
		return
	}
	if len(top) == 0 {
		t.replyResponse(ctx, "No stats collected yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for i, stats := range top {
		name := stats.Username
		if name == "" {
			name = fmt.Sprintf("User %d", stats.UserId)
		}
		count := stats.MessageCount
		if metric == entity.MetricRequests {
			count = stats.RequestCount
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, name, count))
	}
	t.replyResponse(ctx, sb.String())
}

func (t *TgBot) chatStats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	totals, err := t.core.ChatTotals()
	if err != nil {
		t.log.Error("loading chat totals", sl.Err(err))
		t.replyResponse(ctx, "Failed to load chat stats. Please try again later.")
		return nil
	}
	t.replyResponse(ctx, fmt.Sprintf(
		"Chat stats:\n - Logged messages: %d\n - Known users: %d",
		totals.MessageCount, totals.UserCount,
	))
	return nil
}

// showRequests handles /showrequests: the latest link requests, admin only.
func (t *TgBot) showRequests(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveUser.Id != t.config.AdminId {
		t.replyResponse(ctx, "This command is for the admin only.")
		return nil
	}

	requests, err := t.core.RecentRequests(20)
	if err != nil {
		t.log.Error("loading recent requests", sl.Err(err))
		t.replyResponse(ctx, "Failed to load requests. Please try again later.")
		return nil
	}
	if len(requests) == 0 {
		t.replyResponse(ctx, "No link requests logged yet.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Recent link requests:\n")
	for _, req := range requests {
		name := req.Username
		if name == "" {
			name = fmt.Sprintf("User %d", req.RequesterId)
		}
		sb.WriteString(fmt.Sprintf("\n#%d link %d by %s at %s",
			req.Id, req.LinkId, name, req.RequestedAt.Format("02.01 15:04")))
	}
	t.replyResponse(ctx, sb.String())
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.replyResponse(ctx,
		"Commands:\n"+
			"/addlink <url> [DD.MM] [HH:MM] [text] - post an announcement, with reminders if a time is set\n"+
			"/mylinks - list your links\n"+
			"/dellink <id> - remove a link and cancel its reminders\n"+
			"/mystats - your activity counters\n"+
			"/topmsg - leaderboard by messages\n"+
			"/topinterviews - leaderboard by link requests\n"+
			"/chatstats - overall chat totals")
	return nil
}
