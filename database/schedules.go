package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
	"shokken/model"
)

const scheduleColumns = `id, client_id, food_name, food_type_id, test_items, status, received_date, due_date, memo, created_at, updated_at`

// SchedulesAll は検査予定の一覧取得です。from / to (YYYY-MM-DD) が空でなければ
// 受付日で絞り込みます。
func SchedulesAll(from, to string) datasource.Op {
	q := `SELECT ` + scheduleColumns + ` FROM schedules`
	args := []any{}
	query := url.Values{}
	switch {
	case from != "" && to != "":
		q += ` WHERE received_date BETWEEN ? AND ?`
		args = append(args, from, to)
		query.Set("from", from)
		query.Set("to", to)
	case from != "":
		q += ` WHERE received_date >= ?`
		args = append(args, from)
		query.Set("from", from)
	case to != "":
		q += ` WHERE received_date <= ?`
		args = append(args, to)
		query.Set("to", to)
	}
	q += ` ORDER BY received_date DESC, id DESC`

	return datasource.Op{
		SQL:    q,
		Args:   args,
		Method: http.MethodGet,
		Path:   "/api/schedules",
		Query:  query,
	}
}

// ScheduleByID は検査予定の単一取得です。
func ScheduleByID(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/schedules/%d", id),
	}
}

// SchedulesByClient は依頼元ごとの検査予定一覧です。
func SchedulesByClient(clientID int64) datasource.Op {
	return datasource.Op{
		SQL: `SELECT ` + scheduleColumns + ` FROM schedules
			WHERE client_id = ? ORDER BY received_date DESC, id DESC`,
		Args:   []any{clientID},
		Method: http.MethodGet,
		Path:   "/api/schedules",
		Query:  url.Values{"clientId": {fmt.Sprintf("%d", clientID)}},
	}
}

// ScheduleCreate は検査予定の新規登録です。
func ScheduleCreate(s model.Schedule) datasource.Op {
	if s.Status == "" {
		s.Status = model.StatusReceived
	}
	return datasource.Op{
		SQL: `INSERT INTO schedules (client_id, food_name, food_type_id, test_items, status, received_date, due_date, memo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		Args:   []any{s.ClientID, s.FoodName, s.FoodTypeID, s.TestItems, s.Status, s.ReceivedDate, s.DueDate, s.Memo},
		Method: http.MethodPost,
		Path:   "/api/schedules",
		Body:   s,
	}
}

// ScheduleUpdate は検査予定の更新です。
func ScheduleUpdate(s model.Schedule) datasource.Op {
	return datasource.Op{
		SQL: `UPDATE schedules SET client_id = ?, food_name = ?, food_type_id = ?, test_items = ?,
			status = ?, received_date = ?, due_date = ?, memo = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
		Args:   []any{s.ClientID, s.FoodName, s.FoodTypeID, s.TestItems, s.Status, s.ReceivedDate, s.DueDate, s.Memo, s.ID},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/schedules/%d", s.ID),
		Body:   s,
	}
}

// ScheduleUpdateStatus は進行状況のみの更新です。
func ScheduleUpdateStatus(id int64, status string) datasource.Op {
	return datasource.Op{
		SQL:    `UPDATE schedules SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		Args:   []any{status, id},
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/schedules/%d/status", id),
		Body:   map[string]string{"status": status},
	}
}

// ScheduleDelete は検査予定の削除です。添付ファイルも同時に消します。
// (削除は2文になるためファサード側で添付の削除を併発します)
func ScheduleDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM schedules WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/schedules/%d", id),
	}
}

// ScheduleAttachmentsDelete は検査予定配下の添付メタ・実体の削除です (内部モード用)。
func ScheduleAttachmentsDelete(scheduleID int64) datasource.Op {
	return datasource.Op{
		SQL:  `DELETE FROM schedule_attachments WHERE schedule_id = ?`,
		Args: []any{scheduleID},
	}
}

// AttachmentMetaByID は添付ファイルのメタ情報取得です (APIサーバーの
// ダウンロード応答でファイル名を返すために使います)。
func AttachmentMetaByID(id int64) datasource.Op {
	return datasource.Op{
		SQL: `SELECT id, schedule_id, file_name, stored_name, file_size, created_at
			FROM schedule_attachments WHERE id = ?`,
		Args: []any{id},
	}
}

// AttachmentsBySchedule は添付ファイルの一覧です。BLOB本体は含めません。
func AttachmentsBySchedule(scheduleID int64) datasource.Op {
	return datasource.Op{
		SQL: `SELECT id, schedule_id, file_name, stored_name, file_size, created_at
			FROM schedule_attachments WHERE schedule_id = ? ORDER BY id`,
		Args:   []any{scheduleID},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/schedules/%d/attachments", scheduleID),
	}
}
