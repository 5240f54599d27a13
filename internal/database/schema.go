package database

import "fmt"

// createTables bootstraps the schema on startup. Statements are idempotent
// so a restart against an existing database is a no-op.
func (s *MySql) createTables() error {
	tables := []struct {
		name  string
		query string
	}{
		{"links", `CREATE TABLE IF NOT EXISTS %slinks (
			link_id BIGINT NOT NULL AUTO_INCREMENT,
			token VARCHAR(36) NOT NULL,
			url VARCHAR(2048) NOT NULL,
			announcement_text TEXT,
			owner_id BIGINT NOT NULL,
			owner_name VARCHAR(200),
			event_time DATETIME NULL,
			event_time_display VARCHAR(32),
			state VARCHAR(16) NOT NULL DEFAULT 'pending',
			posted_chat_id BIGINT NULL,
			posted_message_id BIGINT NULL,
			reminder_30_sent TINYINT(1) NOT NULL DEFAULT 0,
			reminder_10_sent TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (link_id),
			UNIQUE KEY idx_token (token),
			KEY idx_state_event (state, event_time)
		)`},
		{"requests", `CREATE TABLE IF NOT EXISTS %srequests (
			request_id BIGINT NOT NULL AUTO_INCREMENT,
			link_id BIGINT NOT NULL,
			requester_id BIGINT NOT NULL,
			username VARCHAR(200),
			requested_at DATETIME NOT NULL,
			PRIMARY KEY (request_id),
			KEY idx_link (link_id),
			KEY idx_requester (requester_id),
			CONSTRAINT fk_request_link FOREIGN KEY (link_id)
				REFERENCES %slinks (link_id) ON DELETE CASCADE
		)`},
		{"user_stats", `CREATE TABLE IF NOT EXISTS %suser_stats (
			user_id BIGINT NOT NULL,
			username VARCHAR(200),
			message_count BIGINT NOT NULL DEFAULT 0,
			request_count BIGINT NOT NULL DEFAULT 0,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL,
			PRIMARY KEY (user_id)
		)`},
	}

	for _, table := range tables {
		query := table.query
		switch table.name {
		case "requests":
			query = fmt.Sprintf(query, s.prefix, s.prefix)
		default:
			query = fmt.Sprintf(query, s.prefix)
		}
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("create table %s: %w", table.name, err)
		}
	}
	return nil
}
