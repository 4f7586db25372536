package database

import (
	"fmt"
	"net/http"

	"shokken/datasource"
)

// SettingsAll は全体設定の全件取得です。
func SettingsAll() datasource.Op {
	return datasource.Op{
		SQL:    `SELECT setting_key, setting_value FROM settings ORDER BY setting_key`,
		Method: http.MethodGet,
		Path:   "/api/settings",
	}
}

// SettingGet は全体設定の単一取得です。
func SettingGet(key string) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT setting_key, setting_value FROM settings WHERE setting_key = ?`,
		Args:   []any{key},
		Method: http.MethodGet,
		Path:   "/api/settings/" + key,
	}
}

// SettingUpdate / SettingInsert は設定保存の2段構えです。方言依存の UPSERT を
// 避けるため、まず UPDATE し、影響行数が 0 のときだけ INSERT します。
// REST 側は PUT 1回で完結します (サーバーが同じ2段を行う)。
func SettingUpdate(key, value string) datasource.Op {
	return datasource.Op{
		SQL:    `UPDATE settings SET setting_value = ? WHERE setting_key = ?`,
		Args:   []any{value, key},
		Method: http.MethodPut,
		Path:   "/api/settings/" + key,
		Body:   map[string]string{"value": value},
	}
}

func SettingInsert(key, value string) datasource.Op {
	return datasource.Op{
		SQL:  `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)`,
		Args: []any{key, value},
	}
}

// UserSettingsAll は利用者ごとの個人設定の全件取得です。
func UserSettingsAll(userID int64) datasource.Op {
	return datasource.Op{
		SQL:    `SELECT user_id, setting_key, setting_value FROM user_settings WHERE user_id = ? ORDER BY setting_key`,
		Args:   []any{userID},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/users/%d/settings", userID),
	}
}

// UserSettingUpdate / UserSettingInsert は個人設定保存の2段構えです。
func UserSettingUpdate(userID int64, key, value string) datasource.Op {
	return datasource.Op{
		SQL:    `UPDATE user_settings SET setting_value = ? WHERE user_id = ? AND setting_key = ?`,
		Args:   []any{value, userID, key},
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/users/%d/settings/%s", userID, key),
		Body:   map[string]string{"value": value},
	}
}

func UserSettingInsert(userID int64, key, value string) datasource.Op {
	return datasource.Op{
		SQL:  `INSERT INTO user_settings (user_id, setting_key, setting_value) VALUES (?, ?, ?)`,
		Args: []any{userID, key, value},
	}
}
