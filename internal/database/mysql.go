package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"linkbot/entity"
	"linkbot/internal/config"
)

// MySql is the relational store for links, request logs and user stats.
// Lifecycle transitions use conditional single-statement updates so two
// callers racing on the same link (a button handler and a firing timer)
// cannot both win.
type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySql.Enabled {
		return nil, fmt.Errorf("mysql store is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     conf.MySql.Prefix,
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.createTables(); err != nil {
		return nil, err
	}

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// --- Link operations ---

// CreateLink inserts a pending link and assigns its id. The insert is a
// single statement, so no partially created link is ever visible.
func (s *MySql) CreateLink(link *entity.Link) error {
	stmt, err := s.stmtInsertLink()
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	link.State = entity.StatePending
	link.CreatedAt = now
	link.UpdatedAt = now

	var eventTime sql.NullTime
	if link.HasEventTime() {
		eventTime = sql.NullTime{Time: link.EventTime.UTC(), Valid: true}
	}

	result, err := stmt.Exec(
		link.Token,
		link.Url,
		link.AnnouncementText,
		link.OwnerId,
		link.OwnerName,
		eventTime,
		link.EventTimeDisplay,
		string(link.State),
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	link.Id, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("link insert id: %w", err)
	}
	return nil
}

func (s *MySql) GetLink(id int64) (*entity.Link, error) {
	stmt, err := s.stmtSelectLinkById()
	if err != nil {
		return nil, err
	}
	return s.scanLink(stmt.QueryRow(id))
}

func (s *MySql) GetLinkByToken(token string) (*entity.Link, error) {
	stmt, err := s.stmtSelectLinkByToken()
	if err != nil {
		return nil, err
	}
	return s.scanLink(stmt.QueryRow(token))
}

// MarkPublished moves a pending link to published and records where the
// announcement landed. Returns false without touching the row when the
// link is not pending anymore, which makes a duplicate publish a no-op.
func (s *MySql) MarkPublished(id int64, ref entity.ChatRef) (bool, error) {
	stmt, err := s.stmtMarkPublished()
	if err != nil {
		return false, err
	}
	result, err := stmt.Exec(ref.ChatId, ref.MessageId, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark published: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkReminderSent raises the sent flag for one reminder kind. The flag is
// monotonic: repeating the call is a no-op that still reports true. Flags
// are never raised on inactive links or links without an event time.
func (s *MySql) MarkReminderSent(id int64, kind entity.ReminderKind) (bool, error) {
	var stmt *sql.Stmt
	var err error
	if kind == entity.ReminderFirst {
		stmt, err = s.stmtMarkReminderFirst()
	} else {
		stmt, err = s.stmtMarkReminderSecond()
	}
	if err != nil {
		return false, err
	}

	result, err := stmt.Exec(time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	// No row changed: either the flag is already set (repeat call, fine)
	// or the link is missing/ineligible.
	link, err := s.GetLink(id)
	if err != nil {
		return false, err
	}
	return link.IsActive() && link.ReminderSent(kind), nil
}

// Deactivate retires a link. Idempotent: false means it was already
// inactive or missing.
func (s *MySql) Deactivate(id int64) (bool, error) {
	stmt, err := s.stmtDeactivate()
	if err != nil {
		return false, err
	}
	result, err := stmt.Exec(time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("deactivate link: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListDueForReminder returns published links whose event is still ahead of
// now and which have at least one reminder left to send, ordered by event
// time. Used to rebuild timers after a restart.
func (s *MySql) ListDueForReminder(now time.Time) ([]*entity.Link, error) {
	stmt, err := s.stmtListDueForReminder()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list due links: %w", err)
	}
	defer rows.Close()

	return s.collectLinks(rows)
}

func (s *MySql) LinksByOwner(ownerId int64) ([]*entity.Link, error) {
	stmt, err := s.stmtSelectLinksByOwner()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerId)
	if err != nil {
		return nil, fmt.Errorf("links by owner: %w", err)
	}
	defer rows.Close()

	return s.collectLinks(rows)
}

// --- Request log ---

// LogRequest appends one "get link" request. Rows are never updated.
func (s *MySql) LogRequest(req *entity.Request) error {
	stmt, err := s.stmtInsertRequest()
	if err != nil {
		return err
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	result, err := stmt.Exec(req.LinkId, req.RequesterId, req.Username, req.RequestedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	req.Id, _ = result.LastInsertId()
	return nil
}

// ListRecentRequests returns the newest request entries first.
func (s *MySql) ListRecentRequests(limit int) ([]*entity.Request, error) {
	stmt, err := s.stmtListRecentRequests()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("list recent requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		var req entity.Request
		var username sql.NullString
		if err = rows.Scan(
			&req.Id,
			&req.LinkId,
			&req.RequesterId,
			&username,
			&req.RequestedAt,
		); err != nil {
			return nil, err
		}
		req.Username = username.String
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// --- User stats ---

// UpsertMessageStats bumps the message counter in one statement; the
// increment happens inside the database, so concurrent calls for the same
// user never lose updates. Username is last-writer-wins.
func (s *MySql) UpsertMessageStats(userId int64, username string, at time.Time) error {
	stmt, err := s.stmtUpsertMessageStats()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(userId, username, at.UTC(), at.UTC())
	if err != nil {
		return fmt.Errorf("upsert message stats: %w", err)
	}
	return nil
}

// UpsertRequestStats bumps the link-request counter, same pattern as
// UpsertMessageStats.
func (s *MySql) UpsertRequestStats(userId int64, username string, at time.Time) error {
	stmt, err := s.stmtUpsertRequestStats()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(userId, username, at.UTC(), at.UTC())
	if err != nil {
		return fmt.Errorf("upsert request stats: %w", err)
	}
	return nil
}

func (s *MySql) UserStats(userId int64) (*entity.UserStats, error) {
	stmt, err := s.stmtSelectUserStats()
	if err != nil {
		return nil, err
	}
	var stats entity.UserStats
	var username sql.NullString
	err = stmt.QueryRow(userId).Scan(
		&stats.UserId,
		&username,
		&stats.MessageCount,
		&stats.RequestCount,
		&stats.FirstSeen,
		&stats.LastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user stats: %w", err)
	}
	stats.Username = username.String
	return &stats, nil
}

// TopBy returns the leaderboard for a metric, highest first; ties are
// broken by user id ascending so the ordering is reproducible.
func (s *MySql) TopBy(metric entity.StatsMetric, limit int) ([]*entity.UserStats, error) {
	var stmt *sql.Stmt
	var err error
	switch metric {
	case entity.MetricRequests:
		stmt, err = s.stmtTopByRequests()
	default:
		stmt, err = s.stmtTopByMessages()
	}
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("top by %s: %w", metric, err)
	}
	defer rows.Close()

	var result []*entity.UserStats
	for rows.Next() {
		var stats entity.UserStats
		var username sql.NullString
		if err = rows.Scan(
			&stats.UserId,
			&username,
			&stats.MessageCount,
			&stats.RequestCount,
			&stats.FirstSeen,
			&stats.LastSeen,
		); err != nil {
			return nil, err
		}
		stats.Username = username.String
		result = append(result, &stats)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MySql) CountUsers() (int64, error) {
	stmt, err := s.stmtCountUsers()
	if err != nil {
		return 0, err
	}
	var count int64
	if err = stmt.QueryRow().Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *MySql) scanLink(row rowScanner) (*entity.Link, error) {
	var link entity.Link
	var state string
	var eventTime sql.NullTime
	var display, ownerName sql.NullString
	var chatId, messageId sql.NullInt64

	err := row.Scan(
		&link.Id,
		&link.Token,
		&link.Url,
		&link.AnnouncementText,
		&link.OwnerId,
		&ownerName,
		&eventTime,
		&display,
		&state,
		&chatId,
		&messageId,
		&link.Reminder30Sent,
		&link.Reminder10Sent,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.State = entity.LinkState(state)
	link.OwnerName = ownerName.String
	link.EventTimeDisplay = display.String
	link.PostedChatId = chatId.Int64
	link.PostedMessageId = messageId.Int64
	if eventTime.Valid {
		t := eventTime.Time.UTC()
		link.EventTime = &t
	}
	return &link, nil
}

func (s *MySql) collectLinks(rows *sql.Rows) ([]*entity.Link, error) {
	var links []*entity.Link
	for rows.Next() {
		link, err := s.scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}
