package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
	"shokken/model"
)

// MessagesTable / MessagesDDL は自己プロビジョニング用の定義です。
const (
	MessagesTable = "messages"
	MessagesDDL   = `
		CREATE TABLE IF NOT EXISTS messages (
			id           INTEGER PRIMARY KEY AUTO_INCREMENT,
			sender_id    INTEGER NOT NULL,
			sender_name  VARCHAR(50) NOT NULL DEFAULT '',
			recipient_id INTEGER NOT NULL,
			body         TEXT NOT NULL,
			is_read      TINYINT NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
)

const messageColumns = `id, sender_id, sender_name, recipient_id, body, is_read, created_at`

// MessagesForUser は受信メッセージの一覧です。
func MessagesForUser(userID int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + messageColumns + ` FROM messages WHERE recipient_id = ? ORDER BY id DESC`,
		Args:   []any{userID},
		Method: http.MethodGet,
		Path:   "/api/messages",
		Query:  url.Values{"userId": {fmt.Sprintf("%d", userID)}},
	}
}

// MessagesUnreadCount は未読件数の取得です。通知ポーリングから定期的に呼ばれます。
func MessagesUnreadCount(userID int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT COUNT(*) AS count FROM messages WHERE recipient_id = ? AND is_read = 0`,
		Args:   []any{userID},
		Method: http.MethodGet,
		Path:   "/api/messages/unread-count",
		Query:  url.Values{"userId": {fmt.Sprintf("%d", userID)}},
	}
}

// MessageSend はメッセージ送信です。
func MessageSend(m model.Message) datasource.Op {
	return datasource.Op{
		SQL: `INSERT INTO messages (sender_id, sender_name, recipient_id, body)
			VALUES (?, ?, ?, ?)`,
		Args:   []any{m.SenderID, m.SenderName, m.RecipientID, m.Body},
		Method: http.MethodPost,
		Path:   "/api/messages",
		Body:   m,
	}
}

// MessageMarkRead は既読化です。
func MessageMarkRead(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `UPDATE messages SET is_read = 1 WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/messages/%d/read", id),
	}
}

// MessageDelete はメッセージ削除です。
func MessageDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM messages WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/messages/%d", id),
	}
}
