package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/message"
)

var (
	threadColumns = []string{"id", "org_id", "subject", "created_by", "created_at"}

	messageColumns = []string{
		"id", "org_id", "thread_id", "sender_id", "body", "sent_at", "deleted_at",
	}
	messageColumnList = strings.Join(messageColumns, ", ")
)

// threadListQuery pulls a user's threads with last activity and unread counts
// in one pass. Deleted messages count for neither.
const threadListQuery = `
SELECT t.id, t.org_id, t.subject, t.created_by, t.created_at,
       COALESCE(MAX(m.sent_at), t.created_at) AS last_message_at,
       COUNT(m.id) FILTER (
           WHERE m.sender_id <> tp.user_id
             AND (tp.last_read_at IS NULL OR m.sent_at > tp.last_read_at)
       ) AS unread_count
FROM thread t
JOIN thread_participant tp ON tp.thread_id = t.id AND tp.user_id = $1
LEFT JOIN message m ON m.thread_id = t.id AND m.deleted_at IS NULL
WHERE t.org_id = $2
GROUP BY t.id, tp.user_id, tp.last_read_at
ORDER BY last_message_at DESC`

type threadRow struct {
	ID            string    `db:"id"`
	OrgID         string    `db:"org_id"`
	Subject       string    `db:"subject"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	LastMessageAt null.Time `db:"last_message_at"`
	UnreadCount   int       `db:"unread_count"`
}

func (row threadRow) toThread() message.Thread {
	return message.Thread{
		ID:            row.ID,
		OrgID:         row.OrgID,
		Subject:       row.Subject,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
		LastMessageAt: row.LastMessageAt.Time,
		UnreadCount:   row.UnreadCount,
	}
}

type messageRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	ThreadID  string    `db:"thread_id"`
	SenderID  string    `db:"sender_id"`
	Body      string    `db:"body"`
	SentAt    time.Time `db:"sent_at"`
	DeletedAt null.Time `db:"deleted_at"`
}

func (row messageRow) toMessage() message.Message {
	return message.Message(row)
}

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo messageRepository) CreateThread(ctx context.Context, t message.Thread, participants []message.Participant, exec ...core.DBExecutor) (message.Thread, error) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()

	query, args, err := psql.Insert("thread").
		Columns(threadColumns...).
		Values(t.ID, t.OrgID, t.Subject, t.CreatedBy, t.CreatedAt).
		ToSql()
	if err != nil {
		return message.Thread{}, errors.Wrap(err, "building thread insert")
	}
	ext := getExec(repo.db, exec)
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return message.Thread{}, errors.Wrap(err, "inserting thread")
	}

	for _, p := range participants {
		query, args, err := psql.Insert("thread_participant").
			Columns("thread_id", "user_id", "last_read_at").
			Values(t.ID, p.UserID, p.LastReadAt).
			ToSql()
		if err != nil {
			return message.Thread{}, errors.Wrap(err, "building participant insert")
		}
		if _, err := ext.ExecContext(ctx, query, args...); err != nil {
			return message.Thread{}, errors.Wrap(err, "inserting participant")
		}
	}
	return t, nil
}

func (repo messageRepository) GetThread(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (message.Thread, error) {
	query, args, err := psql.Select(threadColumns...).
		From("thread").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return message.Thread{}, errors.Wrap(err, "building thread query")
	}
	var row threadRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return message.Thread{}, trapNoRowsErr(err, message.ErrThreadNotFound, "getting thread")
	}
	return row.toThread(), nil
}

func (repo messageRepository) QueryThreads(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]message.Thread, error) {
	var rows []threadRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, threadListQuery, userID, orgID); err != nil {
		return nil, errors.Wrap(err, "querying threads")
	}

	threads := make([]message.Thread, 0, len(rows))
	for _, row := range rows {
		threads = append(threads, row.toThread())
	}
	return threads, nil
}

func (repo messageRepository) QueryParticipants(ctx context.Context, threadID string, exec ...core.DBExecutor) ([]message.Participant, error) {
	query, args, err := psql.Select("thread_id", "user_id", "last_read_at").
		From("thread_participant").
		Where(sq.Eq{"thread_id": threadID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building participants query")
	}

	var rows []struct {
		ThreadID   string    `db:"thread_id"`
		UserID     string    `db:"user_id"`
		LastReadAt null.Time `db:"last_read_at"`
	}
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}

	participants := make([]message.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, message.Participant(row))
	}
	return participants, nil
}

func (repo messageRepository) SetLastRead(ctx context.Context, threadID, userID string, at time.Time, exec ...core.DBExecutor) error {
	query, args, err := psql.Update("thread_participant").
		Where(sq.Eq{"thread_id": threadID, "user_id": userID}).
		Set("last_read_at", at.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building last read update")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "setting last read")
	}
	return nil
}

func (repo messageRepository) CreateMessage(ctx context.Context, m message.Message, exec ...core.DBExecutor) (message.Message, error) {
	m.ID = uuid.New().String()
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}

	query, args, err := psql.Insert("message").
		Columns(messageColumns...).
		Values(m.ID, m.OrgID, m.ThreadID, m.SenderID, m.Body, m.SentAt, m.DeletedAt).
		ToSql()
	if err != nil {
		return message.Message{}, errors.Wrap(err, "building message insert")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo messageRepository) QueryMessages(ctx context.Context, orgID, threadID string, paging core.DBPaging, exec ...core.DBExecutor) ([]message.Message, error) {
	q := psql.Select(messageColumns...).
		From("message").
		Where(sq.Eq{"org_id": orgID, "thread_id": threadID}).
		Where("deleted_at IS NULL").
		OrderBy("sent_at ASC")
	q = applyPaging(q, paging)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building messages query")
	}
	var rows []messageRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, nil
}

func (repo messageRepository) GetMessage(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (message.Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("message").
		Where(sq.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return message.Message{}, errors.Wrap(err, "building message query")
	}
	var row messageRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrMessageNotFound, "getting message")
	}
	return row.toMessage(), nil
}

func (repo messageRepository) UpdateMessage(ctx context.Context, m message.Message, exec ...core.DBExecutor) (message.Message, error) {
	query, args, err := psql.Update("message").
		Where(sq.Eq{"id": m.ID}).
		Set("body", m.Body).
		Set("deleted_at", m.DeletedAt).
		Suffix("RETURNING " + messageColumnList).
		ToSql()
	if err != nil {
		return message.Message{}, errors.Wrap(err, "building message update")
	}
	var row messageRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrMessageNotFound, "updating message")
	}
	return row.toMessage(), nil
}
