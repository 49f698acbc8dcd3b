package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zawadi/chekechea/core"
	"github.com/zawadi/chekechea/core/message"
)

type messageRepository struct {
	threads  *threadTable
	messages *messageTable
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{threads: db.thread, messages: db.message}
}

func (repo *messageRepository) CreateThread(ctx context.Context, t message.Thread, participants []message.Participant, exec ...core.DBExecutor) (message.Thread, error) {
	repo.threads.mutex.Lock()
	defer repo.threads.mutex.Unlock()

	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	repo.threads.table[t.ID] = &t

	for _, p := range participants {
		p := p
		p.ThreadID = t.ID
		repo.threads.participants[t.ID] = append(repo.threads.participants[t.ID], &p)
	}
	return t, nil
}

func (repo *messageRepository) GetThread(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (message.Thread, error) {
	repo.threads.mutex.RLock()
	defer repo.threads.mutex.RUnlock()

	if t, ok := repo.threads.table[id]; ok && t.OrgID == orgID {
		return *t, nil
	}
	return message.Thread{}, message.ErrThreadNotFound
}

func (repo *messageRepository) QueryThreads(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]message.Thread, error) {
	repo.threads.mutex.RLock()
	defer repo.threads.mutex.RUnlock()
	repo.messages.mutex.RLock()
	defer repo.messages.mutex.RUnlock()

	var threads []message.Thread
	for _, t := range repo.threads.table {
		if t.OrgID != orgID {
			continue
		}
		var membership *message.Participant
		for _, p := range repo.threads.participants[t.ID] {
			if p.UserID == userID {
				membership = p
				break
			}
		}
		if membership == nil {
			continue
		}

		thread := *t
		thread.LastMessageAt = t.CreatedAt
		for _, m := range repo.messages.table {
			if m.ThreadID != t.ID || m.Deleted() {
				continue
			}
			if m.SentAt.After(thread.LastMessageAt) {
				thread.LastMessageAt = m.SentAt
			}
			if m.SenderID != userID && (!membership.LastReadAt.Valid || m.SentAt.After(membership.LastReadAt.Time)) {
				thread.UnreadCount++
			}
		}
		threads = append(threads, thread)
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].LastMessageAt.After(threads[j].LastMessageAt) })
	return threads, nil
}

func (repo *messageRepository) QueryParticipants(ctx context.Context, threadID string, exec ...core.DBExecutor) ([]message.Participant, error) {
	repo.threads.mutex.RLock()
	defer repo.threads.mutex.RUnlock()

	participants := make([]message.Participant, 0, len(repo.threads.participants[threadID]))
	for _, p := range repo.threads.participants[threadID] {
		participants = append(participants, *p)
	}
	return participants, nil
}

func (repo *messageRepository) SetLastRead(ctx context.Context, threadID, userID string, at time.Time, exec ...core.DBExecutor) error {
	repo.threads.mutex.Lock()
	defer repo.threads.mutex.Unlock()

	for _, p := range repo.threads.participants[threadID] {
		if p.UserID == userID {
			p.LastReadAt.SetValid(at.UTC())
			return nil
		}
	}
	return nil
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m message.Message, exec ...core.DBExecutor) (message.Message, error) {
	repo.messages.mutex.Lock()
	defer repo.messages.mutex.Unlock()

	m.ID = uuid.New().String()
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	repo.messages.table[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, orgID, threadID string, paging core.DBPaging, exec ...core.DBExecutor) ([]message.Message, error) {
	repo.messages.mutex.RLock()
	defer repo.messages.mutex.RUnlock()

	var msgs []message.Message
	for _, m := range repo.messages.table {
		if m.OrgID != orgID || m.ThreadID != threadID || m.Deleted() {
			continue
		}
		msgs = append(msgs, *m)
	}
	// oldest first
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })

	if paging.Offset > 0 {
		if paging.Offset >= len(msgs) {
			return nil, nil
		}
		msgs = msgs[paging.Offset:]
	}
	if paging.Limit > 0 && len(msgs) > paging.Limit {
		msgs = msgs[:paging.Limit]
	}
	return msgs, nil
}

func (repo *messageRepository) GetMessage(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (message.Message, error) {
	repo.messages.mutex.RLock()
	defer repo.messages.mutex.RUnlock()

	if m, ok := repo.messages.table[id]; ok && m.OrgID == orgID {
		return *m, nil
	}
	return message.Message{}, message.ErrMessageNotFound
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, m message.Message, exec ...core.DBExecutor) (message.Message, error) {
	repo.messages.mutex.Lock()
	defer repo.messages.mutex.Unlock()

	origMsg, ok := repo.messages.table[m.ID]
	if !ok {
		return message.Message{}, message.ErrMessageNotFound
	}
	origMsg.Body = m.Body
	origMsg.DeletedAt = m.DeletedAt
	return *origMsg, nil
}
