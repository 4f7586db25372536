package apiserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shokken/api"
	"shokken/config"
	"shokken/database"
	"shokken/datasource"
	"shokken/dbpool"
	"shokken/model"
	"shokken/netmode"
)

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
CREATE TABLE schedules (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id     INTEGER NOT NULL,
	food_name     TEXT NOT NULL,
	food_type_id  INTEGER NOT NULL DEFAULT 0,
	test_items    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'received',
	received_date TEXT NOT NULL DEFAULT '',
	due_date      TEXT NOT NULL DEFAULT '',
	memo          TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE schedule_attachments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	schedule_id INTEGER NOT NULL,
	file_name   TEXT NOT NULL,
	stored_name TEXT NOT NULL,
	file_size   INTEGER NOT NULL DEFAULT 0,
	content     BLOB NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE fees (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	test_item     TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	price         INTEGER NOT NULL DEFAULT 0,
	standard_days INTEGER NOT NULL DEFAULT 0,
	memo          TEXT NOT NULL DEFAULT ''
);
CREATE TABLE food_types (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	test_items TEXT NOT NULL DEFAULT '',
	standards  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
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

// newTestServer はSQLite上のAPIサーバーと利用者 tanaka/himitsu を用意します。
func newTestServer(t *testing.T) (*httptest.Server, datasource.DataSource) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	pool := dbpool.NewWithDSN(netmode.Internal, "sqlite3", dsn, dbpool.DefaultConfig())
	t.Cleanup(func() { pool.Close() })

	ctx := context.Background()
	h, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = h.Conn().ExecContext(ctx, testSchema)
	h.Release()
	require.NoError(t, err)

	ds := datasource.NewDirect(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("himitsu"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = ds.Exec(ctx, datasource.Op{
		SQL:  `INSERT INTO users (username, password_hash, name, role) VALUES (?, ?, ?, ?)`,
		Args: []any{"tanaka", string(hash), "田中", "admin"},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(New(ds).Router())
	t.Cleanup(srv.Close)
	return srv, ds
}

func loggedInClient(t *testing.T, srv *httptest.Server) *api.Client {
	t.Helper()
	c := api.New(config.APIConfig{InternalBaseURL: srv.URL, ExternalBaseURL: srv.URL})
	user, err := c.Login(context.Background(), "tanaka", "himitsu")
	require.NoError(t, err)
	require.NotNil(t, user)
	return c
}

func TestLoginIssuesToken(t *testing.T) {
	srv, _ := newTestServer(t)

	c := api.New(config.APIConfig{InternalBaseURL: srv.URL, ExternalBaseURL: srv.URL})
	user, err := c.Login(context.Background(), "tanaka", "himitsu")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "tanaka", user.Username)
	assert.NotEmpty(t, c.Token())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	c := api.New(config.APIConfig{InternalBaseURL: srv.URL, ExternalBaseURL: srv.URL})
	user, err := c.Login(context.Background(), "tanaka", "machigai")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, c.Token())
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	c := api.New(config.APIConfig{InternalBaseURL: srv.URL, ExternalBaseURL: srv.URL})
	remote := datasource.NewRemote(c)

	var clients []model.Client
	err := remote.Select(context.Background(), &clients, database.ClientsAll())
	require.ErrorIs(t, err, api.ErrSessionExpired)
}

func TestClientCRUDOverRemote(t *testing.T) {
	srv, _ := newTestServer(t)
	remote := datasource.NewRemote(loggedInClient(t, srv))
	ctx := context.Background()

	id, err := remote.Create(ctx, database.ClientCreate(model.Client{Name: "山田水産", ManagerName: "山田"}))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	var c model.Client
	require.NoError(t, remote.Get(ctx, &c, database.ClientByID(id)))
	assert.Equal(t, "山田水産", c.Name)

	c.Memo = "優良"
	affected, err := remote.Exec(ctx, database.ClientUpdate(c))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var found []model.Client
	require.NoError(t, remote.Select(ctx, &found, database.ClientsSearch("山田")))
	require.Len(t, found, 1)
	assert.Equal(t, "優良", found[0].Memo)

	_, err = remote.Exec(ctx, database.ClientDelete(id))
	require.NoError(t, err)
	err = remote.Get(ctx, &c, database.ClientByID(id))
	require.Error(t, err)
}

func TestScheduleStatusValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	remote := datasource.NewRemote(loggedInClient(t, srv))
	ctx := context.Background()

	id, err := remote.Create(ctx, database.ScheduleCreate(model.Schedule{
		ClientID: 1, FoodName: "牛乳", ReceivedDate: "2025-04-01",
	}))
	require.NoError(t, err)

	_, err = remote.Exec(ctx, database.ScheduleUpdateStatus(id, model.StatusTesting))
	require.NoError(t, err)

	var sc model.Schedule
	require.NoError(t, remote.Get(ctx, &sc, database.ScheduleByID(id)))
	assert.Equal(t, model.StatusTesting, sc.Status)

	// 未知の進行状況は 400 で拒否されます
	_, err = remote.Exec(ctx, database.ScheduleUpdateStatus(id, "broken"))
	require.Error(t, err)
}

func TestAttachmentUploadAndDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	c := loggedInClient(t, srv)
	remote := datasource.NewRemote(c)
	ctx := context.Background()

	scheduleID, err := remote.Create(ctx, database.ScheduleCreate(model.Schedule{
		ClientID: 1, FoodName: "冷凍餃子", ReceivedDate: "2025-04-02",
	}))
	require.NoError(t, err)

	content := []byte("test certificate body")
	ok, msg := c.UploadAttachment(ctx, scheduleID, "成績書.pdf", bytes.NewReader(content))
	require.True(t, ok, msg)

	var atts []model.ScheduleAttachment
	require.NoError(t, remote.Select(ctx, &atts, database.AttachmentsBySchedule(scheduleID)))
	require.Len(t, atts, 1)
	assert.Equal(t, "成績書.pdf", atts[0].FileName)
	assert.Equal(t, int64(len(content)), atts[0].FileSize)

	var buf bytes.Buffer
	ok, msg = c.DownloadAttachment(ctx, atts[0].ID, &buf)
	require.True(t, ok, msg)
	assert.Equal(t, content, buf.Bytes())
}

func TestSettingsUpsertOverRemote(t *testing.T) {
	srv, _ := newTestServer(t)
	remote := datasource.NewRemote(loggedInClient(t, srv))
	ctx := context.Background()

	_, err := remote.Exec(ctx, database.SettingUpdate("lab_name", "第一検査室"))
	require.NoError(t, err)
	_, err = remote.Exec(ctx, database.SettingUpdate("lab_name", "第二検査室"))
	require.NoError(t, err)

	var setting model.Setting
	require.NoError(t, remote.Get(ctx, &setting, database.SettingGet("lab_name")))
	assert.Equal(t, "第二検査室", setting.Value)
}

func TestMessagesAndUnreadCountOverRemote(t *testing.T) {
	srv, _ := newTestServer(t)
	remote := datasource.NewRemote(loggedInClient(t, srv))
	ctx := context.Background()

	id, err := remote.Create(ctx, database.MessageSend(model.Message{
		SenderID: 1, SenderName: "田中", RecipientID: 2, Body: "検体到着",
	}))
	require.NoError(t, err)

	var row database.CountRow
	require.NoError(t, remote.Get(ctx, &row, database.MessagesUnreadCount(2)))
	assert.Equal(t, int64(1), row.Count)

	_, err = remote.Exec(ctx, database.MessageMarkRead(id))
	require.NoError(t, err)

	require.NoError(t, remote.Get(ctx, &row, database.MessagesUnreadCount(2)))
	assert.Equal(t, int64(0), row.Count)
}

func TestActivityLogRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	remote := datasource.NewRemote(loggedInClient(t, srv))
	ctx := context.Background()

	_, err := remote.Create(ctx, database.ActivityLogInsert(1, "tanaka", "login", ""))
	require.NoError(t, err)

	var logs []model.ActivityLog
	require.NoError(t, remote.Select(ctx, &logs, database.ActivityLogsByUser(1, 10)))
	require.Len(t, logs, 1)
	assert.Equal(t, "login", logs[0].Action)
}

func TestMetricsEndpointIsExposed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	c := loggedInClient(t, srv)
	token := c.Token()
	require.NotEmpty(t, token)

	c.Logout(context.Background())

	// 失効済みトークンでの呼び出しは 401 になります
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/clients", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
