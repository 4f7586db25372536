package apiserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

func (s *Server) handleSchedulesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var op datasource.Op
	if clientID := q.Get("clientId"); clientID != "" {
		id, err := strconv.ParseInt(clientID, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "clientId が不正です")
			return
		}
		op = database.SchedulesByClient(id)
	} else {
		op = database.SchedulesAll(q.Get("from"), q.Get("to"))
	}

	var schedules []model.Schedule
	if err := s.ds.Select(r.Context(), &schedules, op); err != nil {
		s.log.Error().Err(err).Msg("schedules list failed")
		respondError(w, http.StatusInternalServerError, "検査予定一覧の取得に失敗しました")
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	respondOK(w, schedules)
}

func (s *Server) handleScheduleCreate(w http.ResponseWriter, r *http.Request) {
	var sc model.Schedule
	if err := decodeBody(r, &sc); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if sc.ClientID == 0 || sc.FoodName == "" {
		respondError(w, http.StatusBadRequest, "依頼元と食品名は必須です")
		return
	}
	id, err := s.ds.Create(r.Context(), database.ScheduleCreate(sc))
	if err != nil {
		s.log.Error().Err(err).Str("food", sc.FoodName).Msg("schedule create failed")
		respondError(w, http.StatusInternalServerError, "検査予定の登録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	var sc model.Schedule
	err := s.ds.Get(r.Context(), &sc, database.ScheduleByID(pathID(r)))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "検査予定が見つかりません")
			return
		}
		s.log.Error().Err(err).Msg("schedule get failed")
		respondError(w, http.StatusInternalServerError, "検査予定の取得に失敗しました")
		return
	}
	respondOK(w, sc)
}

func (s *Server) handleScheduleUpdate(w http.ResponseWriter, r *http.Request) {
	var sc model.Schedule
	if err := decodeBody(r, &sc); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	sc.ID = pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.ScheduleUpdate(sc)); err != nil {
		s.log.Error().Err(err).Int64("id", sc.ID).Msg("schedule update failed")
		respondError(w, http.StatusInternalServerError, "検査予定の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

// handleScheduleDelete は本体と添付ファイルをまとめて削除します。
func (s *Server) handleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.ScheduleAttachmentsDelete(id)); err != nil {
		s.log.Warn().Err(err).Int64("id", id).Msg("attachment cleanup failed")
	}
	if _, err := s.ds.Exec(r.Context(), database.ScheduleDelete(id)); err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("schedule delete failed")
		respondError(w, http.StatusInternalServerError, "検査予定の削除に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	switch req.Status {
	case model.StatusReceived, model.StatusTesting, model.StatusCompleted, model.StatusIssued:
	default:
		respondError(w, http.StatusBadRequest, "進行状況の値が不正です")
		return
	}
	if _, err := s.ds.Exec(r.Context(), database.ScheduleUpdateStatus(pathID(r), req.Status)); err != nil {
		s.log.Error().Err(err).Msg("schedule status update failed")
		respondError(w, http.StatusInternalServerError, "進行状況の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleAttachmentsList(w http.ResponseWriter, r *http.Request) {
	var attachments []model.ScheduleAttachment
	if err := s.ds.Select(r.Context(), &attachments, database.AttachmentsBySchedule(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("attachments list failed")
		respondError(w, http.StatusInternalServerError, "添付ファイル一覧の取得に失敗しました")
		return
	}
	if attachments == nil {
		attachments = []model.ScheduleAttachment{}
	}
	respondOK(w, attachments)
}

const maxAttachmentSize = 32 << 20 // 32MB

func (s *Server) handleAttachmentUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		respondError(w, http.StatusBadRequest, "アップロードデータの解析に失敗しました")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "ファイルが指定されていません")
		return
	}
	defer file.Close()

	ok, msg := s.ds.UploadFile(r.Context(), datasource.FileUpload{
		ScheduleID: pathID(r),
		FileName:   header.Filename,
		Reader:     file,
	})
	if !ok {
		respondError(w, http.StatusInternalServerError, msg)
		return
	}
	respondOK(w, nil)
}

// handleAttachmentDownload はBLOB本体をそのまま返します。応答は封筒形式でなく
// 生のバイト列で、ファイル名は Content-Disposition で伝えます。
func (s *Server) handleAttachmentDownload(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var meta model.ScheduleAttachment
	if err := s.ds.Get(r.Context(), &meta, database.AttachmentMetaByID(id)); err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "添付ファイルが見つかりません")
			return
		}
		s.log.Error().Err(err).Int64("id", id).Msg("attachment meta lookup failed")
		respondError(w, http.StatusInternalServerError, "添付ファイルの取得に失敗しました")
		return
	}

	var buf bytes.Buffer
	ok, msg := s.ds.DownloadFile(r.Context(), datasource.FileDownload{AttachmentID: id, Writer: &buf})
	if !ok {
		respondError(w, http.StatusInternalServerError, msg)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
