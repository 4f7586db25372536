package database

import (
	"fmt"
	"net/http"

	"shokken/datasource"
	"shokken/model"
)

// password_hash は一覧・単一取得には含めません。
const userColumns = `id, username, name, role, email, phone, is_active, created_at`

// UsersAll は利用者の全件取得です。
func UsersAll() datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + userColumns + ` FROM users ORDER BY id`,
		Method: http.MethodGet,
		Path:   "/api/users",
	}
}

// UserByID は利用者の単一取得です。
func UserByID(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + userColumns + ` FROM users WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/users/%d", id),
	}
}

// UserByUsername は内部モードのログイン検証用です。password_hash を含むため
// REST 側の定義を持ちません (外部モードの認証は /api/auth/login が担います)。
func UserByUsername(username string) datasource.Op {
	return datasource.Op{
		SQL: `SELECT id, username, password_hash, name, role, email, phone, is_active, created_at
			FROM users WHERE username = ? AND is_active = 1`,
		Args: []any{username},
	}
}

// UserCreate は利用者の新規登録です。内部モードはハッシュ済みパスワードを保存し、
// 外部モードは平文パスワードを送ってサーバー側でハッシュします。
func UserCreate(u model.User, passwordHash, plainPassword string) datasource.Op {
	body := map[string]any{
		"username": u.Username,
		"password": plainPassword,
		"name":     u.Name,
		"role":     u.Role,
		"email":    u.Email,
		"phone":    u.Phone,
	}
	return datasource.Op{
		SQL: `INSERT INTO users (username, password_hash, name, role, email, phone, is_active)
			VALUES (?, ?, ?, ?, ?, ?, 1)`,
		Args:   []any{u.Username, passwordHash, u.Name, u.Role, u.Email, u.Phone},
		Method: http.MethodPost,
		Path:   "/api/users",
		Body:   body,
	}
}

// UserUpdate は利用者情報の更新です。パスワードは UserUpdatePassword で扱います。
func UserUpdate(u model.User) datasource.Op {
	return datasource.Op{
		SQL: `UPDATE users SET name = ?, role = ?, email = ?, phone = ?, is_active = ?
			WHERE id = ?`,
		Args:   []any{u.Name, u.Role, u.Email, u.Phone, u.IsActive, u.ID},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/users/%d", u.ID),
		Body:   u,
	}
}

// UserUpdatePassword はパスワード変更です。
func UserUpdatePassword(id int64, passwordHash, plainPassword string) datasource.Op {
	return datasource.Op{
		SQL:    `UPDATE users SET password_hash = ? WHERE id = ?`,
		Args:   []any{passwordHash, id},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/users/%d/password", id),
		Body:   map[string]string{"password": plainPassword},
	}
}

// UserDelete は利用者の削除です。
func UserDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM users WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/users/%d", id),
	}
}
