package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
)

// ActivityLogsTable / ActivityLogsDDL は自己プロビジョニング用の定義です。
// 旧バージョンのDBにはこのテーブルが無いことがあるため、内部モードの初回
// クエリ前に冪等に作成します。
const (
	ActivityLogsTable = "activity_logs"
	ActivityLogsDDL   = `
		CREATE TABLE IF NOT EXISTS activity_logs (
			id         INTEGER PRIMARY KEY AUTO_INCREMENT,
			user_id    INTEGER NOT NULL DEFAULT 0,
			username   VARCHAR(50) NOT NULL DEFAULT '',
			action     VARCHAR(50) NOT NULL,
			detail     TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
)

// ActivityLogInsert は操作履歴の記録です。
func ActivityLogInsert(userID int64, username, action, detail string) datasource.Op {
	return datasource.Op{
		SQL: `INSERT INTO activity_logs (user_id, username, action, detail)
			VALUES (?, ?, ?, ?)`,
		Args:   []any{userID, username, action, detail},
		Method: http.MethodPost,
		Path:   "/api/logs",
		Body: map[string]any{
			"userId":   userID,
			"username": username,
			"action":   action,
			"detail":   detail,
		},
	}
}

// ActivityLogsRecent は新しい順の操作履歴一覧です。
func ActivityLogsRecent(limit int) datasource.Op {
	if limit <= 0 {
		limit = 100
	}
	return datasource.Op{
		SQL:    `SELECT id, user_id, username, action, detail, created_at FROM activity_logs ORDER BY id DESC LIMIT ?`,
		Args:   []any{limit},
		Method: http.MethodGet,
		Path:   "/api/logs",
		Query:  url.Values{"limit": {fmt.Sprintf("%d", limit)}},
	}
}

// ActivityLogsByUser は利用者ごとの操作履歴一覧です。
func ActivityLogsByUser(userID int64, limit int) datasource.Op {
	if limit <= 0 {
		limit = 100
	}
	return datasource.Op{
		SQL: `SELECT id, user_id, username, action, detail, created_at FROM activity_logs
			WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		Args:   []any{userID, limit},
		Method: http.MethodGet,
		Path:   "/api/logs",
		Query: url.Values{
			"userId": {fmt.Sprintf("%d", userID)},
			"limit":  {fmt.Sprintf("%d", limit)},
		},
	}
}
