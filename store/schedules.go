package store

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
	"shokken/netmode"
)

// Schedules は検査予定管理のファサードです。添付ファイルの転送も扱います。
type Schedules struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

// GetAll は受付日で絞り込んだ検査予定一覧を返します。from / to は空でも構いません。
func (s *Schedules) GetAll(ctx context.Context, from, to string) []model.Schedule {
	var schedules []model.Schedule
	if err := s.ds.Select(ctx, &schedules, database.SchedulesAll(from, to)); err != nil {
		fail(s.log, "schedules.getAll", err)
		return []model.Schedule{}
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	return schedules
}

// GetByID は検査予定を1件返します。
func (s *Schedules) GetByID(ctx context.Context, id int64) *model.Schedule {
	var sc model.Schedule
	if err := s.ds.Get(ctx, &sc, database.ScheduleByID(id)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "schedules.getByID", err)
		}
		return nil
	}
	return &sc
}

// GetByClient は依頼元ごとの検査予定一覧です。
func (s *Schedules) GetByClient(ctx context.Context, clientID int64) []model.Schedule {
	var schedules []model.Schedule
	if err := s.ds.Select(ctx, &schedules, database.SchedulesByClient(clientID)); err != nil {
		fail(s.log, "schedules.getByClient", err)
		return []model.Schedule{}
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	return schedules
}

// Create は検査予定を登録し新規IDを返します。失敗時は 0 です。
func (s *Schedules) Create(ctx context.Context, sc model.Schedule) int64 {
	id, err := s.ds.Create(ctx, database.ScheduleCreate(sc))
	if err != nil {
		fail(s.log, "schedules.create", err)
		return 0
	}
	return id
}

// Update は検査予定を更新します。
func (s *Schedules) Update(ctx context.Context, sc model.Schedule) bool {
	if _, err := s.ds.Exec(ctx, database.ScheduleUpdate(sc)); err != nil {
		fail(s.log, "schedules.update", err)
		return false
	}
	return true
}

// UpdateStatus は進行状況のみを更新します。
func (s *Schedules) UpdateStatus(ctx context.Context, id int64, status string) bool {
	if _, err := s.ds.Exec(ctx, database.ScheduleUpdateStatus(id, status)); err != nil {
		fail(s.log, "schedules.updateStatus", err)
		return false
	}
	return true
}

// Delete は検査予定を削除します。内部モードでは配下の添付も消します
// (外部モードではサーバー側がまとめて削除します)。
func (s *Schedules) Delete(ctx context.Context, id int64) bool {
	if _, err := s.ds.Exec(ctx, database.ScheduleDelete(id)); err != nil {
		fail(s.log, "schedules.delete", err)
		return false
	}
	if s.ds.Mode() == netmode.Internal {
		if _, err := s.ds.Exec(ctx, database.ScheduleAttachmentsDelete(id)); err != nil {
			fail(s.log, "schedules.deleteAttachments", err)
		}
	}
	return true
}

// ListAttachments は添付ファイルの一覧 (本体なし) を返します。
func (s *Schedules) ListAttachments(ctx context.Context, scheduleID int64) []model.ScheduleAttachment {
	var atts []model.ScheduleAttachment
	if err := s.ds.Select(ctx, &atts, database.AttachmentsBySchedule(scheduleID)); err != nil {
		fail(s.log, "schedules.listAttachments", err)
		return []model.ScheduleAttachment{}
	}
	if atts == nil {
		atts = []model.ScheduleAttachment{}
	}
	return atts
}

// AddAttachment は添付ファイルを登録します。(成功フラグ, メッセージ) を返します。
func (s *Schedules) AddAttachment(ctx context.Context, scheduleID int64, fileName string, r io.Reader) (bool, string) {
	return s.ds.UploadFile(ctx, datasource.FileUpload{
		ScheduleID: scheduleID,
		FileName:   fileName,
		Reader:     r,
	})
}

// GetAttachment は添付ファイル本体を w へ書き込みます。
func (s *Schedules) GetAttachment(ctx context.Context, attachmentID int64, w io.Writer) (bool, string) {
	return s.ds.DownloadFile(ctx, datasource.FileDownload{
		AttachmentID: attachmentID,
		Writer:       w,
	})
}
