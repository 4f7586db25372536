package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// Users は利用者管理のファサードです。
type Users struct {
	ds   datasource.DataSource
	auth Authenticator
	log  zerolog.Logger
}

// GetAll は利用者一覧を返します。失敗時は空スライスです。
func (s *Users) GetAll(ctx context.Context) []model.User {
	var users []model.User
	if err := s.ds.Select(ctx, &users, database.UsersAll()); err != nil {
		fail(s.log, "users.getAll", err)
		return []model.User{}
	}
	if users == nil {
		users = []model.User{}
	}
	return users
}

// GetByID は利用者を1件返します。見つからない・失敗時は nil です。
func (s *Users) GetByID(ctx context.Context, id int64) *model.User {
	var u model.User
	if err := s.ds.Get(ctx, &u, database.UserByID(id)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "users.getByID", err)
		}
		return nil
	}
	return &u
}

// Create は利用者を登録し新規IDを返します。失敗時は 0 です。
func (s *Users) Create(ctx context.Context, u model.User, password string) int64 {
	hash, err := HashPassword(password)
	if err != nil {
		fail(s.log, "users.create", err)
		return 0
	}
	id, err := s.ds.Create(ctx, database.UserCreate(u, hash, password))
	if err != nil {
		fail(s.log, "users.create", err)
		return 0
	}
	return id
}

// Update は利用者情報を更新します。
func (s *Users) Update(ctx context.Context, u model.User) bool {
	if _, err := s.ds.Exec(ctx, database.UserUpdate(u)); err != nil {
		fail(s.log, "users.update", err)
		return false
	}
	return true
}

// UpdatePassword はパスワードを変更します。
func (s *Users) UpdatePassword(ctx context.Context, id int64, password string) bool {
	hash, err := HashPassword(password)
	if err != nil {
		fail(s.log, "users.updatePassword", err)
		return false
	}
	if _, err := s.ds.Exec(ctx, database.UserUpdatePassword(id, hash, password)); err != nil {
		fail(s.log, "users.updatePassword", err)
		return false
	}
	return true
}

// Delete は利用者を削除します。
func (s *Users) Delete(ctx context.Context, id int64) bool {
	if _, err := s.ds.Exec(ctx, database.UserDelete(id)); err != nil {
		fail(s.log, "users.delete", err)
		return false
	}
	return true
}

// Login は認証を行います。認証失敗・通信失敗いずれも nil を返しログに残します。
func (s *Users) Login(ctx context.Context, username, password string) *model.User {
	u, err := s.auth.Login(ctx, username, password)
	if err != nil {
		fail(s.log, "users.login", err)
		return nil
	}
	return u
}

// Logout はログイン状態を破棄します。
func (s *Users) Logout(ctx context.Context) {
	s.auth.Logout(ctx)
}
