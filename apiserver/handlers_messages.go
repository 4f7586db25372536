package apiserver

import (
	"errors"
	"net/http"
	"strconv"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

func queryInt64(r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Server) handleLogsList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if n, ok := queryInt64(r, "limit"); ok {
		limit = int(n)
	}

	op := database.ActivityLogsRecent(limit)
	if userID, ok := queryInt64(r, "userId"); ok {
		op = database.ActivityLogsByUser(userID, limit)
	}

	var logs []model.ActivityLog
	if err := s.ds.Select(r.Context(), &logs, op); err != nil {
		s.log.Error().Err(err).Msg("activity logs list failed")
		respondError(w, http.StatusInternalServerError, "操作履歴の取得に失敗しました")
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	respondOK(w, logs)
}

func (s *Server) handleLogCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64  `json:"userId"`
		Username string `json:"username"`
		Action   string `json:"action"`
		Detail   string `json:"detail"`
	}
	if err := decodeBody(r, &req); err != nil || req.Action == "" {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	id, err := s.ds.Create(r.Context(), database.ActivityLogInsert(req.UserID, req.Username, req.Action, req.Detail))
	if err != nil {
		s.log.Error().Err(err).Str("action", req.Action).Msg("activity log insert failed")
		respondError(w, http.StatusInternalServerError, "操作履歴の記録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleMessagesList(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryInt64(r, "userId")
	if !ok {
		userID = requestUser(r).ID
	}

	var msgs []model.Message
	if err := s.ds.Select(r.Context(), &msgs, database.MessagesForUser(userID)); err != nil {
		s.log.Error().Err(err).Msg("messages list failed")
		respondError(w, http.StatusInternalServerError, "メッセージの取得に失敗しました")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	respondOK(w, msgs)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryInt64(r, "userId")
	if !ok {
		userID = requestUser(r).ID
	}

	var row database.CountRow
	if err := s.ds.Get(r.Context(), &row, database.MessagesUnreadCount(userID)); err != nil {
		if !errors.Is(err, datasource.ErrNotFound) {
			s.log.Error().Err(err).Msg("unread count failed")
			respondError(w, http.StatusInternalServerError, "未読件数の取得に失敗しました")
			return
		}
	}
	respondOK(w, row)
}

func (s *Server) handleMessageSend(w http.ResponseWriter, r *http.Request) {
	var m model.Message
	if err := decodeBody(r, &m); err != nil || m.Body == "" {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if m.SenderID == 0 {
		sender := requestUser(r)
		m.SenderID = sender.ID
		m.SenderName = sender.Name
	}
	id, err := s.ds.Create(r.Context(), database.MessageSend(m))
	if err != nil {
		s.log.Error().Err(err).Msg("message send failed")
		respondError(w, http.StatusInternalServerError, "メッセージの送信に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleMessageRead(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.MessageMarkRead(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("message mark read failed")
		respondError(w, http.StatusInternalServerError, "メッセージの既読化に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleMessageDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.MessageDelete(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("message delete failed")
		respondError(w, http.StatusInternalServerError, "メッセージの削除に失敗しました")
		return
	}
	respondOK(w, nil)
}
