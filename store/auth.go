package store

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"shokken/api"
	"shokken/database"
	"shokken/datasource"
	"shokken/logging"
	"shokken/model"
)

// Authenticator はログイン状態の管理です。内部モードは users テーブルと
// bcrypt 照合、外部モードは API のベアラーセッションで実装されます。
type Authenticator interface {
	// Login は認証に成功すれば利用者を返します。認証失敗は (nil, nil) です。
	Login(ctx context.Context, username, password string) (*model.User, error)
	// Logout はログイン状態を破棄します。
	Logout(ctx context.Context)
	// CurrentUser はログイン中の利用者を返します。未ログイン時は nil です。
	CurrentUser() *model.User
}

// directAuth は内部モードの認証です。
type directAuth struct {
	ds datasource.DataSource

	mu      sync.Mutex
	current *model.User
}

func newDirectAuth(ds datasource.DataSource) *directAuth {
	return &directAuth{ds: ds}
}

func (a *directAuth) Login(ctx context.Context, username, password string) (*model.User, error) {
	log := logging.WithComponent("store.auth")

	var u model.User
	err := a.ds.Get(ctx, &u, database.UserByUsername(username))
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			log.Info().Str("username", username).Msg("login failed: unknown user")
			return nil, nil
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		log.Info().Str("username", username).Msg("login failed: password mismatch")
		return nil, nil
	}

	u.PasswordHash = ""
	a.mu.Lock()
	a.current = &u
	a.mu.Unlock()
	log.Info().Str("username", username).Msg("login succeeded")
	return &u, nil
}

func (a *directAuth) Logout(ctx context.Context) {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
}

func (a *directAuth) CurrentUser() *model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// remoteAuth は外部モードの認証です。セッション状態は api.Client が持ちます。
type remoteAuth struct {
	client *api.Client
}

func newRemoteAuth(client *api.Client) *remoteAuth {
	return &remoteAuth{client: client}
}

func (a *remoteAuth) Login(ctx context.Context, username, password string) (*model.User, error) {
	return a.client.Login(ctx, username, password)
}

func (a *remoteAuth) Logout(ctx context.Context) {
	a.client.Logout(ctx)
}

func (a *remoteAuth) CurrentUser() *model.User {
	return a.client.CurrentUser()
}

// HashPassword は利用者登録時のパスワードハッシュ化です。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
