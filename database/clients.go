package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
	"shokken/model"
)

const clientColumns = `id, name, business_no, ceo_name, address, phone, email, manager_name, manager_phone, memo, created_at`

// ClientsAll は依頼元の全件取得です。
func ClientsAll() datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + clientColumns + ` FROM clients ORDER BY name`,
		Method: http.MethodGet,
		Path:   "/api/clients",
	}
}

// ClientByID は依頼元の単一取得です。
func ClientByID(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/clients/%d", id),
	}
}

// ClientsSearch は名称・担当者名のキーワード検索です。
// キーワードは呼び出し側で正規化済みであることを前提とします。
func ClientsSearch(keyword string) datasource.Op {
	like := "%" + keyword + "%"
	return datasource.Op{
		SQL: `SELECT ` + clientColumns + ` FROM clients
			WHERE name LIKE ? OR manager_name LIKE ? ORDER BY name`,
		Args:   []any{like, like},
		Method: http.MethodGet,
		Path:   "/api/clients/search",
		Query:  url.Values{"keyword": {keyword}},
	}
}

// ClientCreate は依頼元の新規登録です。
func ClientCreate(c model.Client) datasource.Op {
	return datasource.Op{
		SQL: `INSERT INTO clients (name, business_no, ceo_name, address, phone, email, manager_name, manager_phone, memo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Args:   []any{c.Name, c.BusinessNo, c.CeoName, c.Address, c.Phone, c.Email, c.ManagerName, c.ManagerPhone, c.Memo},
		Method: http.MethodPost,
		Path:   "/api/clients",
		Body:   c,
	}
}

// ClientUpdate は依頼元の更新です。
func ClientUpdate(c model.Client) datasource.Op {
	return datasource.Op{
		SQL: `UPDATE clients SET name = ?, business_no = ?, ceo_name = ?, address = ?, phone = ?,
			email = ?, manager_name = ?, manager_phone = ?, memo = ? WHERE id = ?`,
		Args:   []any{c.Name, c.BusinessNo, c.CeoName, c.Address, c.Phone, c.Email, c.ManagerName, c.ManagerPhone, c.Memo, c.ID},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/clients/%d", c.ID),
		Body:   c,
	}
}

// ClientDelete は依頼元の削除です。
func ClientDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM clients WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/clients/%d", id),
	}
}
