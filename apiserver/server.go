// Package apiserver は外部モードのクライアントが利用する REST サーバーです。
// このプロセスはモード判定を行わず、常に直接DB接続で動作します。
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/logging"
)

// Server は REST サーバー本体です。
type Server struct {
	ds     datasource.DataSource
	router *mux.Router
	tokens *tokenStore
	log    zerolog.Logger
}

// New はサーバーを組み立てます。操作履歴・メッセージのテーブルは
// ここで冪等に作成します。
func New(ds datasource.DataSource) *Server {
	s := &Server{
		ds:     ds,
		router: mux.NewRouter(),
		tokens: newTokenStore(12 * time.Hour),
		log:    logging.WithComponent("apiserver"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ds.Ensure(ctx, database.ActivityLogsTable, database.ActivityLogsDDL); err != nil {
		s.log.Warn().Err(err).Msg("failed to ensure activity_logs table")
	}
	if err := ds.Ensure(ctx, database.MessagesTable, database.MessagesDDL); err != nil {
		s.log.Warn().Err(err).Msg("failed to ensure messages table")
	}

	s.routes()
	return s
}

// Router はハンドラツリーを返します (テストでは httptest.Server に渡します)。
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe はサーバーを起動します。
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("API server listening")
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	// 認証必須の範囲
	a := r.PathPrefix("/api").Subrouter()
	a.Use(s.authMiddleware)

	a.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	a.HandleFunc("/users", s.handleUsersList).Methods(http.MethodGet)
	a.HandleFunc("/users", s.handleUserCreate).Methods(http.MethodPost)
	a.HandleFunc("/users/{id:[0-9]+}", s.handleUserGet).Methods(http.MethodGet)
	a.HandleFunc("/users/{id:[0-9]+}", s.handleUserUpdate).Methods(http.MethodPut)
	a.HandleFunc("/users/{id:[0-9]+}", s.handleUserDelete).Methods(http.MethodDelete)
	a.HandleFunc("/users/{id:[0-9]+}/password", s.handleUserPassword).Methods(http.MethodPut)
	a.HandleFunc("/users/{id:[0-9]+}/settings", s.handleUserSettingsList).Methods(http.MethodGet)
	a.HandleFunc("/users/{id:[0-9]+}/settings/{key}", s.handleUserSettingSet).Methods(http.MethodPut)

	a.HandleFunc("/clients", s.handleClientsList).Methods(http.MethodGet)
	a.HandleFunc("/clients", s.handleClientCreate).Methods(http.MethodPost)
	a.HandleFunc("/clients/search", s.handleClientsSearch).Methods(http.MethodGet)
	a.HandleFunc("/clients/{id:[0-9]+}", s.handleClientGet).Methods(http.MethodGet)
	a.HandleFunc("/clients/{id:[0-9]+}", s.handleClientUpdate).Methods(http.MethodPut)
	a.HandleFunc("/clients/{id:[0-9]+}", s.handleClientDelete).Methods(http.MethodDelete)

	a.HandleFunc("/schedules", s.handleSchedulesList).Methods(http.MethodGet)
	a.HandleFunc("/schedules", s.handleScheduleCreate).Methods(http.MethodPost)
	a.HandleFunc("/schedules/{id:[0-9]+}", s.handleScheduleGet).Methods(http.MethodGet)
	a.HandleFunc("/schedules/{id:[0-9]+}", s.handleScheduleUpdate).Methods(http.MethodPut)
	a.HandleFunc("/schedules/{id:[0-9]+}", s.handleScheduleDelete).Methods(http.MethodDelete)
	a.HandleFunc("/schedules/{id:[0-9]+}/status", s.handleScheduleStatus).Methods(http.MethodPatch)
	a.HandleFunc("/schedules/{id:[0-9]+}/attachments", s.handleAttachmentsList).Methods(http.MethodGet)
	a.HandleFunc("/schedules/{id:[0-9]+}/attachments", s.handleAttachmentUpload).Methods(http.MethodPost)
	a.HandleFunc("/attachments/{id:[0-9]+}", s.handleAttachmentDownload).Methods(http.MethodGet)

	a.HandleFunc("/fees", s.handleFeesList).Methods(http.MethodGet)
	a.HandleFunc("/fees", s.handleFeeCreate).Methods(http.MethodPost)
	a.HandleFunc("/fees/{id:[0-9]+}", s.handleFeeUpdate).Methods(http.MethodPut)
	a.HandleFunc("/fees/{id:[0-9]+}", s.handleFeeDelete).Methods(http.MethodDelete)

	a.HandleFunc("/food-types", s.handleFoodTypesList).Methods(http.MethodGet)
	a.HandleFunc("/food-types", s.handleFoodTypeCreate).Methods(http.MethodPost)
	a.HandleFunc("/food-types/search", s.handleFoodTypesSearch).Methods(http.MethodGet)
	a.HandleFunc("/food-types/{id:[0-9]+}", s.handleFoodTypeGet).Methods(http.MethodGet)
	a.HandleFunc("/food-types/{id:[0-9]+}", s.handleFoodTypeUpdate).Methods(http.MethodPut)
	a.HandleFunc("/food-types/{id:[0-9]+}", s.handleFoodTypeDelete).Methods(http.MethodDelete)

	a.HandleFunc("/settings", s.handleSettingsList).Methods(http.MethodGet)
	a.HandleFunc("/settings/{key}", s.handleSettingGet).Methods(http.MethodGet)
	a.HandleFunc("/settings/{key}", s.handleSettingSet).Methods(http.MethodPut)

	a.HandleFunc("/logs", s.handleLogsList).Methods(http.MethodGet)
	a.HandleFunc("/logs", s.handleLogCreate).Methods(http.MethodPost)

	a.HandleFunc("/messages", s.handleMessagesList).Methods(http.MethodGet)
	a.HandleFunc("/messages", s.handleMessageSend).Methods(http.MethodPost)
	a.HandleFunc("/messages/unread-count", s.handleUnreadCount).Methods(http.MethodGet)
	a.HandleFunc("/messages/{id:[0-9]+}/read", s.handleMessageRead).Methods(http.MethodPatch)
	a.HandleFunc("/messages/{id:[0-9]+}", s.handleMessageDelete).Methods(http.MethodDelete)
}
