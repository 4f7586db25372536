package apiserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

func (s *Server) handleFeesList(w http.ResponseWriter, r *http.Request) {
	op := database.FeesAll()
	if category := r.URL.Query().Get("category"); category != "" {
		op = database.FeesByCategory(category)
	}
	var fees []model.Fee
	if err := s.ds.Select(r.Context(), &fees, op); err != nil {
		s.log.Error().Err(err).Msg("fees list failed")
		respondError(w, http.StatusInternalServerError, "料金一覧の取得に失敗しました")
		return
	}
	if fees == nil {
		fees = []model.Fee{}
	}
	respondOK(w, fees)
}

func (s *Server) handleFeeCreate(w http.ResponseWriter, r *http.Request) {
	var f model.Fee
	if err := decodeBody(r, &f); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if f.TestItem == "" {
		respondError(w, http.StatusBadRequest, "検査項目名は必須です")
		return
	}
	id, err := s.ds.Create(r.Context(), database.FeeCreate(f))
	if err != nil {
		s.log.Error().Err(err).Str("item", f.TestItem).Msg("fee create failed")
		respondError(w, http.StatusInternalServerError, "料金の登録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleFeeUpdate(w http.ResponseWriter, r *http.Request) {
	var f model.Fee
	if err := decodeBody(r, &f); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	f.ID = pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.FeeUpdate(f)); err != nil {
		s.log.Error().Err(err).Int64("id", f.ID).Msg("fee update failed")
		respondError(w, http.StatusInternalServerError, "料金の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleFeeDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.FeeDelete(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("fee delete failed")
		respondError(w, http.StatusInternalServerError, "料金の削除に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleFoodTypesList(w http.ResponseWriter, r *http.Request) {
	var types []model.FoodType
	if err := s.ds.Select(r.Context(), &types, database.FoodTypesAll()); err != nil {
		s.log.Error().Err(err).Msg("food types list failed")
		respondError(w, http.StatusInternalServerError, "食品類型一覧の取得に失敗しました")
		return
	}
	if types == nil {
		types = []model.FoodType{}
	}
	respondOK(w, types)
}

func (s *Server) handleFoodTypesSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	var types []model.FoodType
	if err := s.ds.Select(r.Context(), &types, database.FoodTypesSearch(keyword)); err != nil {
		s.log.Error().Err(err).Str("keyword", keyword).Msg("food types search failed")
		respondError(w, http.StatusInternalServerError, "食品類型の検索に失敗しました")
		return
	}
	if types == nil {
		types = []model.FoodType{}
	}
	respondOK(w, types)
}

func (s *Server) handleFoodTypeCreate(w http.ResponseWriter, r *http.Request) {
	var ft model.FoodType
	if err := decodeBody(r, &ft); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if ft.Name == "" {
		respondError(w, http.StatusBadRequest, "類型名は必須です")
		return
	}
	id, err := s.ds.Create(r.Context(), database.FoodTypeCreate(ft))
	if err != nil {
		s.log.Error().Err(err).Str("name", ft.Name).Msg("food type create failed")
		respondError(w, http.StatusInternalServerError, "食品類型の登録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleFoodTypeGet(w http.ResponseWriter, r *http.Request) {
	var ft model.FoodType
	err := s.ds.Get(r.Context(), &ft, database.FoodTypeByID(pathID(r)))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "食品類型が見つかりません")
			return
		}
		s.log.Error().Err(err).Msg("food type get failed")
		respondError(w, http.StatusInternalServerError, "食品類型の取得に失敗しました")
		return
	}
	respondOK(w, ft)
}

func (s *Server) handleFoodTypeUpdate(w http.ResponseWriter, r *http.Request) {
	var ft model.FoodType
	if err := decodeBody(r, &ft); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	ft.ID = pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.FoodTypeUpdate(ft)); err != nil {
		s.log.Error().Err(err).Int64("id", ft.ID).Msg("food type update failed")
		respondError(w, http.StatusInternalServerError, "食品類型の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleFoodTypeDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.FoodTypeDelete(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("food type delete failed")
		respondError(w, http.StatusInternalServerError, "食品類型の削除に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleSettingsList(w http.ResponseWriter, r *http.Request) {
	var settings []model.Setting
	if err := s.ds.Select(r.Context(), &settings, database.SettingsAll()); err != nil {
		s.log.Error().Err(err).Msg("settings list failed")
		respondError(w, http.StatusInternalServerError, "設定一覧の取得に失敗しました")
		return
	}
	if settings == nil {
		settings = []model.Setting{}
	}
	respondOK(w, settings)
}

func (s *Server) handleSettingGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var setting model.Setting
	err := s.ds.Get(r.Context(), &setting, database.SettingGet(key))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "設定が見つかりません")
			return
		}
		s.log.Error().Err(err).Str("key", key).Msg("setting get failed")
		respondError(w, http.StatusInternalServerError, "設定の取得に失敗しました")
		return
	}
	respondOK(w, setting)
}

// handleSettingSet は UPDATE → 影響行 0 なら INSERT の2段で保存します。
func (s *Server) handleSettingSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	key := mux.Vars(r)["key"]

	affected, err := s.ds.Exec(r.Context(), database.SettingUpdate(key, req.Value))
	if err == nil && affected == 0 {
		_, err = s.ds.Exec(r.Context(), database.SettingInsert(key, req.Value))
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("setting save failed")
		respondError(w, http.StatusInternalServerError, "設定の保存に失敗しました")
		return
	}
	respondOK(w, nil)
}
