package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
	"shokken/model"
)

const feeColumns = `id, test_item, category, price, standard_days, memo`

// FeesAll は検査料金マスタの全件取得です。
func FeesAll() datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + feeColumns + ` FROM fees ORDER BY category, test_item`,
		Method: http.MethodGet,
		Path:   "/api/fees",
	}
}

// FeesByCategory は分類ごとの料金一覧です。
func FeesByCategory(category string) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + feeColumns + ` FROM fees WHERE category = ? ORDER BY test_item`,
		Args:   []any{category},
		Method: http.MethodGet,
		Path:   "/api/fees",
		Query:  url.Values{"category": {category}},
	}
}

// FeeCreate は料金の新規登録です。
func FeeCreate(f model.Fee) datasource.Op {
	return datasource.Op{
		SQL: `INSERT INTO fees (test_item, category, price, standard_days, memo)
			VALUES (?, ?, ?, ?, ?)`,
		Args:   []any{f.TestItem, f.Category, f.Price, f.StandardDays, f.Memo},
		Method: http.MethodPost,
		Path:   "/api/fees",
		Body:   f,
	}
}

// FeeUpdate は料金の更新です。
func FeeUpdate(f model.Fee) datasource.Op {
	return datasource.Op{
		SQL: `UPDATE fees SET test_item = ?, category = ?, price = ?, standard_days = ?, memo = ?
			WHERE id = ?`,
		Args:   []any{f.TestItem, f.Category, f.Price, f.StandardDays, f.Memo, f.ID},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/fees/%d", f.ID),
		Body:   f,
	}
}

// FeeDelete は料金の削除です。
func FeeDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM fees WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/fees/%d", id),
	}
}
