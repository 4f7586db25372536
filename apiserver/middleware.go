package apiserver

import (
	"context"
	"net/http"
	"strings"

	"shokken/model"
)

type userContextKey struct{}

// authMiddleware はベアラートークンを検証します。不正・期限切れは一律 401 で、
// クライアント側はこれを受けてセッションを破棄し再ログインを促します。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "認証が必要です")
			return
		}
		user, ok := s.tokens.lookup(token)
		if !ok {
			respondError(w, http.StatusUnauthorized, "セッションの有効期限が切れました")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestUser は認証済みリクエストの利用者を返します。
func requestUser(r *http.Request) model.User {
	u, _ := r.Context().Value(userContextKey{}).(model.User)
	return u
}

func bearerToken(r *http.Request) string {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}
