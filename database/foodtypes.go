package database

import (
	"fmt"
	"net/http"
	"net/url"

	"shokken/datasource"
	"shokken/model"
)

const foodTypeColumns = `id, name, category, test_items, standards, created_at`

// FoodTypesAll は食品類型の全件取得です。
func FoodTypesAll() datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + foodTypeColumns + ` FROM food_types ORDER BY category, name`,
		Method: http.MethodGet,
		Path:   "/api/food-types",
	}
}

// FoodTypeByID は食品類型の単一取得です。
func FoodTypeByID(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT ` + foodTypeColumns + ` FROM food_types WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/food-types/%d", id),
	}
}

// FoodTypesSearch は類型名のキーワード検索です。
func FoodTypesSearch(keyword string) datasource.Op {
	like := "%" + keyword + "%"
	return datasource.Op{
		SQL:    `SELECT ` + foodTypeColumns + ` FROM food_types WHERE name LIKE ? OR category LIKE ? ORDER BY name`,
		Args:   []any{like, like},
		Method: http.MethodGet,
		Path:   "/api/food-types/search",
		Query:  url.Values{"keyword": {keyword}},
	}
}

// FoodTypeCreate は食品類型の新規登録です。
func FoodTypeCreate(ft model.FoodType) datasource.Op {
	return datasource.Op{
		SQL: `INSERT INTO food_types (name, category, test_items, standards)
			VALUES (?, ?, ?, ?)`,
		Args:   []any{ft.Name, ft.Category, ft.TestItems, ft.Standards},
		Method: http.MethodPost,
		Path:   "/api/food-types",
		Body:   ft,
	}
}

// FoodTypeUpdate は食品類型の更新です。
func FoodTypeUpdate(ft model.FoodType) datasource.Op {
	return datasource.Op{
		SQL: `UPDATE food_types SET name = ?, category = ?, test_items = ?, standards = ?
			WHERE id = ?`,
		Args:   []any{ft.Name, ft.Category, ft.TestItems, ft.Standards, ft.ID},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/food-types/%d", ft.ID),
		Body:   ft,
	}
}

// FoodTypeDelete は食品類型の削除です。
func FoodTypeDelete(id int64) datasource.Op {
	return datasource.Op{
		SQL:    `DELETE FROM food_types WHERE id = ?`,
		Args:   []any{id},
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/food-types/%d", id),
	}
}
