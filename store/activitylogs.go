package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// ActivityLogs は操作履歴のファサードです。テーブルが無い環境もあるため、
// 内部モードの初回クエリ前に自前でスキーマを保証します。
type ActivityLogs struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

func (s *ActivityLogs) ensure(ctx context.Context) {
	if err := s.ds.Ensure(ctx, database.ActivityLogsTable, database.ActivityLogsDDL); err != nil {
		fail(s.log, "activityLogs.ensure", err)
	}
}

// Record は操作履歴を記録します。記録失敗は本処理を妨げません。
func (s *ActivityLogs) Record(ctx context.Context, userID int64, username, action, detail string) bool {
	s.ensure(ctx)
	if _, err := s.ds.Create(ctx, database.ActivityLogInsert(userID, username, action, detail)); err != nil {
		fail(s.log, "activityLogs.record", err)
		return false
	}
	return true
}

// List は新しい順の操作履歴を返します。失敗時は空スライスです。
func (s *ActivityLogs) List(ctx context.Context, limit int) []model.ActivityLog {
	s.ensure(ctx)
	var logs []model.ActivityLog
	if err := s.ds.Select(ctx, &logs, database.ActivityLogsRecent(limit)); err != nil {
		fail(s.log, "activityLogs.list", err)
		return []model.ActivityLog{}
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	return logs
}

// ListByUser は利用者ごとの操作履歴を返します。
func (s *ActivityLogs) ListByUser(ctx context.Context, userID int64, limit int) []model.ActivityLog {
	s.ensure(ctx)
	var logs []model.ActivityLog
	if err := s.ds.Select(ctx, &logs, database.ActivityLogsByUser(userID, limit)); err != nil {
		fail(s.log, "activityLogs.listByUser", err)
		return []model.ActivityLog{}
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	return logs
}
