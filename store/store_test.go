package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shokken/api"
	"shokken/config"
	"shokken/datasource"
	"shokken/dbpool"
	"shokken/model"
	"shokken/netmode"
)

// SQLite版テストスキーマ。messages / activity_logs も作っておくことで
// Ensure の probe が成功し、MySQL方言のDDLは実行されません。
const testSchema = `
CREATE TABLE users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'staff',
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE clients (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	business_no   TEXT NOT NULL DEFAULT '',
	ceo_name      TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	manager_name  TEXT NOT NULL DEFAULT '',
	manager_phone TEXT NOT NULL DEFAULT '',
	memo          TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE settings (
	setting_key   TEXT PRIMARY KEY,
	setting_value TEXT NOT NULL DEFAULT ''
);
CREATE TABLE user_settings (
	user_id       INTEGER NOT NULL,
	setting_key   TEXT NOT NULL,
	setting_value TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, setting_key)
);
CREATE TABLE messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id    INTEGER NOT NULL,
	sender_name  TEXT NOT NULL DEFAULT '',
	recipient_id INTEGER NOT NULL,
	body         TEXT NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE activity_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL DEFAULT 0,
	username   TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

func newDirectStore(t *testing.T, schema string) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	pool := dbpool.NewWithDSN(netmode.Internal, "sqlite3", dsn, dbpool.DefaultConfig())
	t.Cleanup(func() { pool.Close() })

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Release()
	if schema != "" {
		_, err = h.Conn().ExecContext(context.Background(), schema)
		require.NoError(t, err)
	}

	return New(datasource.NewDirect(pool))
}

func TestDirectStoreModeIsInternal(t *testing.T) {
	st := newDirectStore(t, testSchema)
	assert.Equal(t, netmode.Internal, st.Mode())
}

func TestDirectLoginLifecycle(t *testing.T) {
	st := newDirectStore(t, testSchema)
	ctx := context.Background()

	id := st.Users.Create(ctx, model.User{Username: "tanaka", Name: "田中", Role: "staff"}, "himitsu")
	require.Greater(t, id, int64(0))

	assert.Nil(t, st.Auth.CurrentUser())

	user := st.Users.Login(ctx, "tanaka", "himitsu")
	require.NotNil(t, user)
	assert.Equal(t, "tanaka", user.Username)
	assert.Empty(t, user.PasswordHash)
	require.NotNil(t, st.Auth.CurrentUser())

	// 認証失敗は nil (エラーにはならない)
	assert.Nil(t, st.Users.Login(ctx, "tanaka", "machigai"))
	assert.Nil(t, st.Users.Login(ctx, "nobody", "himitsu"))

	st.Users.Logout(ctx)
	assert.Nil(t, st.Auth.CurrentUser())
}

func TestClientsSearchFoldsFullWidthInput(t *testing.T) {
	st := newDirectStore(t, testSchema)
	ctx := context.Background()

	require.Greater(t, st.Clients.Create(ctx, model.Client{Name: "ABC食品"}), int64(0))
	require.Greater(t, st.Clients.Create(ctx, model.Client{Name: "山田水産"}), int64(0))

	// 全角英数で入力しても半角で保存された名前に一致します
	found := st.Clients.Search(ctx, "ＡＢＣ")
	require.Len(t, found, 1)
	assert.Equal(t, "ABC食品", found[0].Name)

	// 空キーワードは全件
	assert.Len(t, st.Clients.Search(ctx, "   "), 2)
}

func TestNormalizeKeyword(t *testing.T) {
	assert.Equal(t, "ABC123", normalizeKeyword("　ＡＢＣ１２３　"))
	assert.Equal(t, "テスト", normalizeKeyword("ﾃｽﾄ"))
}

func TestSettingsUpsert(t *testing.T) {
	st := newDirectStore(t, testSchema)
	ctx := context.Background()

	assert.Equal(t, "", st.Settings.Get(ctx, "lab_name"))

	require.True(t, st.Settings.Set(ctx, "lab_name", "第一検査室"))
	assert.Equal(t, "第一検査室", st.Settings.Get(ctx, "lab_name"))

	// 2回目は INSERT ではなく UPDATE
	require.True(t, st.Settings.Set(ctx, "lab_name", "第二検査室"))
	assert.Equal(t, "第二検査室", st.Settings.Get(ctx, "lab_name"))
	assert.Len(t, st.Settings.GetAll(ctx), 1)

	require.True(t, st.Settings.SetUserSetting(ctx, 1, "theme", "dark"))
	require.True(t, st.Settings.SetUserSetting(ctx, 1, "theme", "light"))
	settings := st.Settings.GetUserSettings(ctx, 1)
	require.Len(t, settings, 1)
	assert.Equal(t, "light", settings[0].Value)
}

func TestMessagesFlow(t *testing.T) {
	st := newDirectStore(t, testSchema)
	ctx := context.Background()

	id := st.Messages.Send(ctx, model.Message{SenderID: 1, SenderName: "田中", RecipientID: 2, Body: "検体到着"})
	require.Greater(t, id, int64(0))

	assert.Equal(t, int64(1), st.Messages.UnreadCount(ctx, 2))
	assert.Equal(t, int64(0), st.Messages.UnreadCount(ctx, 1))

	msgs := st.Messages.ListForUser(ctx, 2)
	require.Len(t, msgs, 1)
	assert.Equal(t, "検体到着", msgs[0].Body)

	require.True(t, st.Messages.MarkRead(ctx, id))
	assert.Equal(t, int64(0), st.Messages.UnreadCount(ctx, 2))

	require.True(t, st.Messages.Delete(ctx, id))
	assert.Empty(t, st.Messages.ListForUser(ctx, 2))
}

func TestActivityLogRecording(t *testing.T) {
	st := newDirectStore(t, testSchema)
	ctx := context.Background()

	require.True(t, st.ActivityLogs.Record(ctx, 1, "tanaka", "login", ""))
	require.True(t, st.ActivityLogs.Record(ctx, 2, "sato", "schedule_create", "牛乳"))

	logs := st.ActivityLogs.List(ctx, 10)
	require.Len(t, logs, 2)
	assert.Equal(t, "schedule_create", logs[0].Action) // 新しい順

	byUser := st.ActivityLogs.ListByUser(ctx, 1, 10)
	require.Len(t, byUser, 1)
	assert.Equal(t, "login", byUser[0].Action)
}

// テーブルが欠けたDBでも、読み取りは空・更新は false に畳み込まれます。
func TestDirectFailuresCollapseToDefaults(t *testing.T) {
	st := newDirectStore(t, "") // スキーマ無し
	ctx := context.Background()

	assert.Empty(t, st.Clients.GetAll(ctx))
	assert.Nil(t, st.Clients.GetByID(ctx, 1))
	assert.Equal(t, int64(0), st.Clients.Create(ctx, model.Client{Name: "x"}))
	assert.False(t, st.Clients.Update(ctx, model.Client{ID: 1, Name: "x"}))
	assert.False(t, st.Clients.Delete(ctx, 1))
}

// サーバーが常に 500 を返す外部モードでも同じ既定値に畳み込まれます。
func TestRemoteFailuresCollapseToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "database down"})
	}))
	defer srv.Close()

	client := api.New(config.APIConfig{InternalBaseURL: srv.URL, ExternalBaseURL: srv.URL})
	st := New(datasource.NewRemote(client))

	ctx := context.Background()
	assert.Equal(t, netmode.External, st.Mode())
	assert.Empty(t, st.Schedules.GetAll(ctx, "", ""))
	assert.Nil(t, st.Schedules.GetByID(ctx, 1))
	assert.Equal(t, int64(0), st.Schedules.Create(ctx, model.Schedule{ClientID: 1, FoodName: "牛乳"}))
	assert.False(t, st.Schedules.UpdateStatus(ctx, 1, model.StatusTesting))
	assert.Equal(t, int64(0), st.Messages.UnreadCount(ctx, 1))
}
