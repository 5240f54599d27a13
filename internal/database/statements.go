package database

import (
	"database/sql"
	"fmt"
)

const linkColumns = `link_id, token, url, announcement_text, owner_id, owner_name,
	event_time, event_time_display, state, posted_chat_id, posted_message_id,
	reminder_30_sent, reminder_10_sent, created_at, updated_at`

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

// Query builders are plain functions of the table prefix so the generated
// SQL can be checked without a live connection.

func insertLinkQuery(prefix string) string {
	return fmt.Sprintf(
		`INSERT INTO %slinks
		   (token, url, announcement_text, owner_id, owner_name,
		    event_time, event_time_display, state, created_at, updated_at)
		   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prefix,
	)
}

func selectLinkByIdQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT %s FROM %slinks WHERE link_id = ?`,
		linkColumns, prefix,
	)
}

func selectLinkByTokenQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT %s FROM %slinks WHERE token = ?`,
		linkColumns, prefix,
	)
}

func selectLinksByOwnerQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT %s FROM %slinks
		   WHERE owner_id = ? AND state <> 'inactive'
		   ORDER BY created_at DESC`,
		linkColumns, prefix,
	)
}

func markPublishedQuery(prefix string) string {
	return fmt.Sprintf(
		`UPDATE %slinks SET
		   state = 'published',
		   posted_chat_id = ?,
		   posted_message_id = ?,
		   updated_at = ?
		   WHERE link_id = ? AND state = 'pending'`,
		prefix,
	)
}

func markReminderFirstQuery(prefix string) string {
	return fmt.Sprintf(
		`UPDATE %slinks SET
		   reminder_30_sent = 1,
		   updated_at = ?
		   WHERE link_id = ? AND state <> 'inactive'
		     AND event_time IS NOT NULL AND reminder_30_sent = 0`,
		prefix,
	)
}

func markReminderSecondQuery(prefix string) string {
	return fmt.Sprintf(
		`UPDATE %slinks SET
		   reminder_10_sent = 1,
		   updated_at = ?
		   WHERE link_id = ? AND state <> 'inactive'
		     AND event_time IS NOT NULL AND reminder_10_sent = 0`,
		prefix,
	)
}

func deactivateQuery(prefix string) string {
	return fmt.Sprintf(
		`UPDATE %slinks SET
		   state = 'inactive',
		   updated_at = ?
		   WHERE link_id = ? AND state <> 'inactive'`,
		prefix,
	)
}

func listDueForReminderQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT %s FROM %slinks
		   WHERE state = 'published'
		     AND event_time IS NOT NULL AND event_time > ?
		     AND (reminder_30_sent = 0 OR reminder_10_sent = 0)
		   ORDER BY event_time ASC`,
		linkColumns, prefix,
	)
}

func insertRequestQuery(prefix string) string {
	return fmt.Sprintf(
		`INSERT INTO %srequests (link_id, requester_id, username, requested_at)
		   VALUES (?, ?, ?, ?)`,
		prefix,
	)
}

func listRecentRequestsQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT request_id, link_id, requester_id, username, requested_at
		   FROM %srequests
		   ORDER BY requested_at DESC, request_id DESC
		   LIMIT ?`,
		prefix,
	)
}

func upsertMessageStatsQuery(prefix string) string {
	return fmt.Sprintf(
		`INSERT INTO %suser_stats
		   (user_id, username, message_count, request_count, first_seen, last_seen)
		   VALUES (?, ?, 1, 0, ?, ?)
		   ON DUPLICATE KEY UPDATE
		     message_count = message_count + 1,
		     username = VALUES(username),
		     last_seen = VALUES(last_seen)`,
		prefix,
	)
}

func upsertRequestStatsQuery(prefix string) string {
	return fmt.Sprintf(
		`INSERT INTO %suser_stats
		   (user_id, username, message_count, request_count, first_seen, last_seen)
		   VALUES (?, ?, 0, 1, ?, ?)
		   ON DUPLICATE KEY UPDATE
		     request_count = request_count + 1,
		     username = VALUES(username),
		     last_seen = VALUES(last_seen)`,
		prefix,
	)
}

func selectUserStatsQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT user_id, username, message_count, request_count, first_seen, last_seen
		   FROM %suser_stats WHERE user_id = ?`,
		prefix,
	)
}

func topByMessagesQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT user_id, username, message_count, request_count, first_seen, last_seen
		   FROM %suser_stats
		   ORDER BY message_count DESC, user_id ASC
		   LIMIT ?`,
		prefix,
	)
}

func topByRequestsQuery(prefix string) string {
	return fmt.Sprintf(
		`SELECT user_id, username, message_count, request_count, first_seen, last_seen
		   FROM %suser_stats
		   ORDER BY request_count DESC, user_id ASC
		   LIMIT ?`,
		prefix,
	)
}

func countUsersQuery(prefix string) string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %suser_stats`, prefix)
}

func (s *MySql) stmtInsertLink() (*sql.Stmt, error) {
	return s.prepareStmt("insertLink", insertLinkQuery(s.prefix))
}

func (s *MySql) stmtSelectLinkById() (*sql.Stmt, error) {
	return s.prepareStmt("selectLinkById", selectLinkByIdQuery(s.prefix))
}

func (s *MySql) stmtSelectLinkByToken() (*sql.Stmt, error) {
	return s.prepareStmt("selectLinkByToken", selectLinkByTokenQuery(s.prefix))
}

func (s *MySql) stmtSelectLinksByOwner() (*sql.Stmt, error) {
	return s.prepareStmt("selectLinksByOwner", selectLinksByOwnerQuery(s.prefix))
}

func (s *MySql) stmtMarkPublished() (*sql.Stmt, error) {
	return s.prepareStmt("markPublished", markPublishedQuery(s.prefix))
}

func (s *MySql) stmtMarkReminderFirst() (*sql.Stmt, error) {
	return s.prepareStmt("markReminderFirst", markReminderFirstQuery(s.prefix))
}

func (s *MySql) stmtMarkReminderSecond() (*sql.Stmt, error) {
	return s.prepareStmt("markReminderSecond", markReminderSecondQuery(s.prefix))
}

func (s *MySql) stmtDeactivate() (*sql.Stmt, error) {
	return s.prepareStmt("deactivateLink", deactivateQuery(s.prefix))
}

func (s *MySql) stmtListDueForReminder() (*sql.Stmt, error) {
	return s.prepareStmt("listDueForReminder", listDueForReminderQuery(s.prefix))
}

func (s *MySql) stmtInsertRequest() (*sql.Stmt, error) {
	return s.prepareStmt("insertRequest", insertRequestQuery(s.prefix))
}

func (s *MySql) stmtListRecentRequests() (*sql.Stmt, error) {
	return s.prepareStmt("listRecentRequests", listRecentRequestsQuery(s.prefix))
}

func (s *MySql) stmtUpsertMessageStats() (*sql.Stmt, error) {
	return s.prepareStmt("upsertMessageStats", upsertMessageStatsQuery(s.prefix))
}

func (s *MySql) stmtUpsertRequestStats() (*sql.Stmt, error) {
	return s.prepareStmt("upsertRequestStats", upsertRequestStatsQuery(s.prefix))
}

func (s *MySql) stmtSelectUserStats() (*sql.Stmt, error) {
	return s.prepareStmt("selectUserStats", selectUserStatsQuery(s.prefix))
}

func (s *MySql) stmtTopByMessages() (*sql.Stmt, error) {
	return s.prepareStmt("topByMessages", topByMessagesQuery(s.prefix))
}

func (s *MySql) stmtTopByRequests() (*sql.Stmt, error) {
	return s.prepareStmt("topByRequests", topByRequestsQuery(s.prefix))
}

func (s *MySql) stmtCountUsers() (*sql.Stmt, error) {
	return s.prepareStmt("countUsers", countUsersQuery(s.prefix))
}
