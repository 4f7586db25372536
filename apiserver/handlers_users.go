package apiserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// handleLogin は認証してトークンを発行します。認証失敗は 401 ではなく
// 200 の success=false で返します (クライアント側はセッション破棄と
// 認証失敗を区別するため)。
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}

	var u model.User
	err := s.ds.Get(r.Context(), &u, database.UserByUsername(req.Username))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			s.log.Info().Str("username", req.Username).Msg("login rejected: unknown user")
			writeJSON(w, http.StatusOK, envelope{Success: false, Message: "ユーザー名またはパスワードが違います"})
			return
		}
		s.log.Error().Err(err).Msg("login query failed")
		respondError(w, http.StatusInternalServerError, "サーバーエラーが発生しました")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.log.Info().Str("username", req.Username).Msg("login rejected: password mismatch")
		writeJSON(w, http.StatusOK, envelope{Success: false, Message: "ユーザー名またはパスワードが違います"})
		return
	}

	u.PasswordHash = ""
	token := s.tokens.issue(u)
	s.log.Info().Str("username", u.Username).Msg("login accepted")
	writeJSON(w, http.StatusOK, envelope{Success: true, Token: token, User: u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.revoke(bearerToken(r))
	respondOK(w, nil)
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	var users []model.User
	if err := s.ds.Select(r.Context(), &users, database.UsersAll()); err != nil {
		s.log.Error().Err(err).Msg("users list failed")
		respondError(w, http.StatusInternalServerError, "利用者一覧の取得に失敗しました")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondOK(w, users)
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "ユーザー名とパスワードは必須です")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "パスワードの処理に失敗しました")
		return
	}
	u := model.User{
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	id, err := s.ds.Create(r.Context(), database.UserCreate(u, string(hash), ""))
	if err != nil {
		s.log.Error().Err(err).Str("username", req.Username).Msg("user create failed")
		respondError(w, http.StatusInternalServerError, "利用者の登録に失敗しました")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	var u model.User
	err := s.ds.Get(r.Context(), &u, database.UserByID(pathID(r)))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "利用者が見つかりません")
			return
		}
		s.log.Error().Err(err).Msg("user get failed")
		respondError(w, http.StatusInternalServerError, "利用者の取得に失敗しました")
		return
	}
	respondOK(w, u)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := decodeBody(r, &u); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	u.ID = pathID(r)
	if _, err := s.ds.Exec(r.Context(), database.UserUpdate(u)); err != nil {
		s.log.Error().Err(err).Int64("id", u.ID).Msg("user update failed")
		respondError(w, http.StatusInternalServerError, "利用者の更新に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ds.Exec(r.Context(), database.UserDelete(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("user delete failed")
		respondError(w, http.StatusInternalServerError, "利用者の削除に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleUserPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "パスワードが指定されていません")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "パスワードの処理に失敗しました")
		return
	}
	if _, err := s.ds.Exec(r.Context(), database.UserUpdatePassword(pathID(r), string(hash), "")); err != nil {
		s.log.Error().Err(err).Msg("password update failed")
		respondError(w, http.StatusInternalServerError, "パスワードの変更に失敗しました")
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleUserSettingsList(w http.ResponseWriter, r *http.Request) {
	var settings []model.UserSetting
	if err := s.ds.Select(r.Context(), &settings, database.UserSettingsAll(pathID(r))); err != nil {
		s.log.Error().Err(err).Msg("user settings list failed")
		respondError(w, http.StatusInternalServerError, "個人設定の取得に失敗しました")
		return
	}
	if settings == nil {
		settings = []model.UserSetting{}
	}
	respondOK(w, settings)
}

// handleUserSettingSet は UPDATE → 影響行 0 なら INSERT の2段で保存します。
func (s *Server) handleUserSettingSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "リクエストの形式が不正です")
		return
	}
	userID := pathID(r)
	key := mux.Vars(r)["key"]

	affected, err := s.ds.Exec(r.Context(), database.UserSettingUpdate(userID, key, req.Value))
	if err == nil && affected == 0 {
		_, err = s.ds.Exec(r.Context(), database.UserSettingInsert(userID, key, req.Value))
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("user setting save failed")
		respondError(w, http.StatusInternalServerError, "個人設定の保存に失敗しました")
		return
	}
	respondOK(w, nil)
}
