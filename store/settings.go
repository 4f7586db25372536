package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// Settings は全体設定と個人設定のファサードです。
type Settings struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

// GetAll は全体設定の一覧を返します。失敗時は空スライスです。
func (s *Settings) GetAll(ctx context.Context) []model.Setting {
	var settings []model.Setting
	if err := s.ds.Select(ctx, &settings, database.SettingsAll()); err != nil {
		fail(s.log, "settings.getAll", err)
		return []model.Setting{}
	}
	if settings == nil {
		settings = []model.Setting{}
	}
	return settings
}

// Get は設定値を返します。未設定・失敗時は空文字列です。
func (s *Settings) Get(ctx context.Context, key string) string {
	var st model.Setting
	if err := s.ds.Get(ctx, &st, database.SettingGet(key)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "settings.get", err)
		}
		return ""
	}
	return st.Value
}

// Set は設定値を保存します。UPDATE して影響行が無ければ INSERT します
// (外部モードでは PUT 1回で完結し、2段目は実行されません)。
func (s *Settings) Set(ctx context.Context, key, value string) bool {
	affected, err := s.ds.Exec(ctx, database.SettingUpdate(key, value))
	if err != nil {
		fail(s.log, "settings.set", err)
		return false
	}
	if affected == 0 {
		if _, err := s.ds.Exec(ctx, database.SettingInsert(key, value)); err != nil {
			fail(s.log, "settings.set", err)
			return false
		}
	}
	return true
}

// GetUserSettings は利用者ごとの個人設定一覧を返します。
func (s *Settings) GetUserSettings(ctx context.Context, userID int64) []model.UserSetting {
	var settings []model.UserSetting
	if err := s.ds.Select(ctx, &settings, database.UserSettingsAll(userID)); err != nil {
		fail(s.log, "settings.getUserSettings", err)
		return []model.UserSetting{}
	}
	if settings == nil {
		settings = []model.UserSetting{}
	}
	return settings
}

// SetUserSetting は個人設定を保存します。
func (s *Settings) SetUserSetting(ctx context.Context, userID int64, key, value string) bool {
	affected, err := s.ds.Exec(ctx, database.UserSettingUpdate(userID, key, value))
	if err != nil {
		fail(s.log, "settings.setUserSetting", err)
		return false
	}
	if affected == 0 {
		if _, err := s.ds.Exec(ctx, database.UserSettingInsert(userID, key, value)); err != nil {
			fail(s.log, "settings.setUserSetting", err)
			return false
		}
	}
	return true
}
