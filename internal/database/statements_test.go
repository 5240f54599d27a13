package database

import (
	"strings"
	"testing"
)

func TestQueryBuilders_PrefixSubstitution(t *testing.T) {
	cases := []struct {
		name  string
		build func(string) string
		table string
	}{
		{"insertLink", insertLinkQuery, "links"},
		{"selectLinkById", selectLinkByIdQuery, "links"},
		{"selectLinkByToken", selectLinkByTokenQuery, "links"},
		{"selectLinksByOwner", selectLinksByOwnerQuery, "links"},
		{"markPublished", markPublishedQuery, "links"},
		{"markReminderFirst", markReminderFirstQuery, "links"},
		{"markReminderSecond", markReminderSecondQuery, "links"},
		{"deactivate", deactivateQuery, "links"},
		{"listDueForReminder", listDueForReminderQuery, "links"},
		{"insertRequest", insertRequestQuery, "requests"},
		{"listRecentRequests", listRecentRequestsQuery, "requests"},
		{"upsertMessageStats", upsertMessageStatsQuery, "user_stats"},
		{"upsertRequestStats", upsertRequestStatsQuery, "user_stats"},
		{"selectUserStats", selectUserStatsQuery, "user_stats"},
		{"topByMessages", topByMessagesQuery, "user_stats"},
		{"topByRequests", topByRequestsQuery, "user_stats"},
		{"countUsers", countUsersQuery, "user_stats"},
	}
	for _, tc := range cases {
		query := tc.build("bot_")
		if !strings.Contains(query, "bot_"+tc.table) {
			t.Fatalf("%s: prefix not applied to %s: %s", tc.name, tc.table, query)
		}
		if strings.Contains(query, " "+tc.table) {
			t.Fatalf("%s: unprefixed table reference remains: %s", tc.name, query)
		}
	}
}

func TestQueryBuilders_ConditionalPredicates(t *testing.T) {
	// Lifecycle updates must carry their check-and-set precondition so a
	// race between two callers cannot apply the transition twice.
	if q := markPublishedQuery(""); !strings.Contains(q, "state = 'pending'") {
		t.Fatalf("markPublished missing pending guard: %s", q)
	}
	if q := deactivateQuery(""); !strings.Contains(q, "state <> 'inactive'") {
		t.Fatalf("deactivate missing inactive guard: %s", q)
	}
	for _, q := range []string{markReminderFirstQuery(""), markReminderSecondQuery("")} {
		if !strings.Contains(q, "state <> 'inactive'") || !strings.Contains(q, "event_time IS NOT NULL") {
			t.Fatalf("reminder flag update missing eligibility guard: %s", q)
		}
	}
	if q := markReminderFirstQuery(""); !strings.Contains(q, "reminder_30_sent = 0") {
		t.Fatalf("first reminder update not conditional on unset flag: %s", q)
	}
	if q := markReminderSecondQuery(""); !strings.Contains(q, "reminder_10_sent = 0") {
		t.Fatalf("second reminder update not conditional on unset flag: %s", q)
	}
}

func TestQueryBuilders_RecoveryAndOrdering(t *testing.T) {
	due := listDueForReminderQuery("")
	for _, want := range []string{
		"state = 'published'",
		"event_time > ?",
		"reminder_30_sent = 0 OR reminder_10_sent = 0",
		"ORDER BY event_time ASC",
	} {
		if !strings.Contains(due, want) {
			t.Fatalf("listDueForReminder missing %q: %s", want, due)
		}
	}

	// Leaderboards order by the metric descending with a reproducible
	// user-id tie break.
	if q := topByMessagesQuery(""); !strings.Contains(q, "ORDER BY message_count DESC, user_id ASC") {
		t.Fatalf("topByMessages ordering: %s", q)
	}
	if q := topByRequestsQuery(""); !strings.Contains(q, "ORDER BY request_count DESC, user_id ASC") {
		t.Fatalf("topByRequests ordering: %s", q)
	}
	if q := listRecentRequestsQuery(""); !strings.Contains(q, "ORDER BY requested_at DESC, request_id DESC") {
		t.Fatalf("listRecentRequests ordering: %s", q)
	}
}

func TestQueryBuilders_SelectColumnList(t *testing.T) {
	for _, q := range []string{
		selectLinkByIdQuery(""),
		selectLinkByTokenQuery(""),
		selectLinksByOwnerQuery(""),
		listDueForReminderQuery(""),
	} {
		if !strings.Contains(q, linkColumns) {
			t.Fatalf("link select without the full column list: %s", q)
		}
	}
}
