package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// Messages は社内メッセージのファサードです。通知ポーリングから
// UnreadCount が定期的に呼ばれます。
type Messages struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

func (s *Messages) ensure(ctx context.Context) {
	if err := s.ds.Ensure(ctx, database.MessagesTable, database.MessagesDDL); err != nil {
		fail(s.log, "messages.ensure", err)
	}
}

// ListForUser は受信メッセージ一覧を返します。失敗時は空スライスです。
func (s *Messages) ListForUser(ctx context.Context, userID int64) []model.Message {
	s.ensure(ctx)
	var msgs []model.Message
	if err := s.ds.Select(ctx, &msgs, database.MessagesForUser(userID)); err != nil {
		fail(s.log, "messages.listForUser", err)
		return []model.Message{}
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs
}

// UnreadCount は未読件数を返します。失敗時は 0 です。
func (s *Messages) UnreadCount(ctx context.Context, userID int64) int64 {
	s.ensure(ctx)
	var row database.CountRow
	if err := s.ds.Get(ctx, &row, database.MessagesUnreadCount(userID)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "messages.unreadCount", err)
		}
		return 0
	}
	return row.Count
}

// Send はメッセージを送信し新規IDを返します。失敗時は 0 です。
func (s *Messages) Send(ctx context.Context, m model.Message) int64 {
	s.ensure(ctx)
	id, err := s.ds.Create(ctx, database.MessageSend(m))
	if err != nil {
		fail(s.log, "messages.send", err)
		return 0
	}
	return id
}

// MarkRead はメッセージを既読にします。
func (s *Messages) MarkRead(ctx context.Context, id int64) bool {
	s.ensure(ctx)
	if _, err := s.ds.Exec(ctx, database.MessageMarkRead(id)); err != nil {
		fail(s.log, "messages.markRead", err)
		return false
	}
	return true
}

// Delete はメッセージを削除します。
func (s *Messages) Delete(ctx context.Context, id int64) bool {
	s.ensure(ctx)
	if _, err := s.ds.Exec(ctx, database.MessageDelete(id)); err != nil {
		fail(s.log, "messages.delete", err)
		return false
	}
	return true
}
