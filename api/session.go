package api

import (
	"sync"

	"shokken/model"
)

// session はログインで得たベアラートークンと利用者情報を保持します。
// プロセス内のメモリにのみ存在し、ディスクへは保存しません。
// 書き込み (login / logout / 401クリア) は最後の書き込みが勝ちます。
type session struct {
	mu    sync.Mutex
	token string
	user  *model.User
}

func (s *session) set(token string, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

func (s *session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}
