package apiserver

import (
	"errors"
	"net/http"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

func (s *Server) handleClientsList(w http.ResponseWriter, r *http.Request) {
	var clients []model.Client
	if err := s.ds.Select(r.Context(), &clients, database.ClientsAll()); err != nil {
		s.log.Error().Err(err).Msg("clients list failed")
		respondError(w, http.StatusInternalServerError, "依頼元一覧の取得に失敗しました")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	respondOK(w, clients)
}

func (s *Server) handleClientsSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	var clients []model.Client
	if err := s.ds.Select(r.Context(), &clients, database.ClientsSearch(keyword)); err != nil {
		s.log.Error().Err(err).Str("keyword", keyword).Msg("clients search failed")
		respondError(w, http.StatusInternalServerError, "依頼元の検索に失敗しました")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	respondOK(w, clients)
}

func (s *Server) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if err := decodeBody(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if c.Name == "" {
		respondError(w, http.StatusBadRequest, "依頼元名は必須です")
		return
	}
	id, err := s.ds.Create(r.Context(), database.ClientCreate(c))
	if err != nil {
		s.log.Error().Err(err).Str("name", c.Name).Msg("client create failed")
		respondError(w, http.StatusInternalServerError, "依頼元の登録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleClientGet(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	err := s.ds.Get(r.Context(), &c, database.ClientByID(pathID(r)))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "依頼元が見つかりません")
			return
		}
		s.log.Error().Err(err).Msg("client get failed")
		respondError(w, http.StatusInternalServerError, "依頼元の取得に失敗しました")
		return
	}
	respondOK(w, c)
}

func (s *Server) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if err := decodeBody(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	c.ID = pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.ClientUpdate(c)); err != nil {
		s.log.Error().Err(err).Int64("id", c.ID).Msg("client update failed")
		respondError(w, http.StatusInternalServerError, "依頼元の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.ClientDelete(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("client delete failed")
		respondError(w, http.StatusInternalServerError, "依頼元の削除に失敗しました")
		return
	}
	respondOK(w, nil)
}
