package datasource

import (
	"bytes"
	"context"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shokken/dbpool"
	"shokken/model"
	"shokken/netmode"
)

// SQLite用のテストスキーマ。本番スキーマ (schema.sql, MySQL) と列は同一です。
const testSchema = `
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
`

const sqliteActivityLogsDDL = `
CREATE TABLE IF NOT EXISTS activity_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL DEFAULT 0,
	username   TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

func newTestDirect(t *testing.T) *Direct {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	pool := dbpool.NewWithDSN(netmode.Internal, "sqlite3", dsn, dbpool.DefaultConfig())
	t.Cleanup(func() { pool.Close() })

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Release()
	_, err = h.Conn().ExecContext(context.Background(), testSchema)
	require.NoError(t, err)

	return NewDirect(pool)
}

func clientOp(name string) Op {
	return Op{
		SQL: `INSERT INTO clients (name, business_no, ceo_name, address, phone, email, manager_name, manager_phone, memo)
			VALUES (?, '', '', '', '', '', '', '', '')`,
		Args: []any{name},
	}
}

func TestDirectCreateGetSelect(t *testing.T) {
	d := newTestDirect(t)
	ctx := context.Background()

	id, err := d.Create(ctx, clientOp("山田水産"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	var c model.Client
	err = d.Get(ctx, &c, Op{SQL: `SELECT id, name, memo FROM clients WHERE id = ?`, Args: []any{id}})
	require.NoError(t, err)
	assert.Equal(t, "山田水産", c.Name)

	var clients []model.Client
	err = d.Select(ctx, &clients, Op{SQL: `SELECT id, name FROM clients ORDER BY id`})
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestDirectGetMissingRowIsErrNotFound(t *testing.T) {
	d := newTestDirect(t)

	var c model.Client
	err := d.Get(context.Background(), &c, Op{SQL: `SELECT id, name FROM clients WHERE id = ?`, Args: []any{999}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectExecReportsAffectedRows(t *testing.T) {
	d := newTestDirect(t)
	ctx := context.Background()

	_, err := d.Create(ctx, clientOp("佐藤食品"))
	require.NoError(t, err)

	affected, err := d.Exec(ctx, Op{SQL: `UPDATE clients SET memo = ? WHERE name = ?`, Args: []any{"優良", "佐藤食品"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = d.Exec(ctx, Op{SQL: `UPDATE clients SET memo = ? WHERE name = ?`, Args: []any{"x", "不存在"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestDirectEnsureCreatesTableOnce(t *testing.T) {
	d := newTestDirect(t)
	ctx := context.Background()

	require.NoError(t, d.Ensure(ctx, "activity_logs", sqliteActivityLogsDDL))

	_, err := d.Exec(ctx, Op{
		SQL:  `INSERT INTO activity_logs (user_id, username, action, detail) VALUES (?, ?, ?, ?)`,
		Args: []any{1, "sato", "login", ""},
	})
	require.NoError(t, err)

	// 既存テーブルへの再適用は probed 済みキャッシュで素通りします
	require.NoError(t, d.Ensure(ctx, "activity_logs", "THIS WOULD FAIL IF EXECUTED"))
}

func TestDirectEnsureSkipsDDLWhenTableExists(t *testing.T) {
	d := newTestDirect(t)

	// clients はスキーマ構築済み。DDLが流れるなら構文エラーで失敗するはず。
	require.NoError(t, d.Ensure(context.Background(), "clients", "NOT VALID SQL"))
}

func TestDirectUploadAndDownloadAttachment(t *testing.T) {
	d := newTestDirect(t)
	ctx := context.Background()

	content := []byte("certificate PDF bytes")
	ok, msg := d.UploadFile(ctx, FileUpload{
		ScheduleID: 10,
		FileName:   "成績書.pdf",
		Reader:     bytes.NewReader(content),
	})
	require.True(t, ok, msg)

	var atts []model.ScheduleAttachment
	err := d.Select(ctx, &atts, Op{
		SQL:  `SELECT id, schedule_id, file_name, stored_name, file_size FROM schedule_attachments WHERE schedule_id = ?`,
		Args: []any{int64(10)},
	})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "成績書.pdf", atts[0].FileName)
	assert.Equal(t, int64(len(content)), atts[0].FileSize)
	assert.NotEmpty(t, atts[0].StoredName)

	var buf bytes.Buffer
	ok, msg = d.DownloadFile(ctx, FileDownload{AttachmentID: atts[0].ID, Writer: &buf})
	require.True(t, ok, msg)
	assert.Equal(t, content, buf.Bytes())
}

func TestDirectDownloadMissingAttachment(t *testing.T) {
	d := newTestDirect(t)

	var buf bytes.Buffer
	ok, msg := d.DownloadFile(context.Background(), FileDownload{AttachmentID: 404, Writer: &buf})
	assert.False(t, ok)
	assert.True(t, strings.Contains(msg, "見つかりません"))
}

func TestDirectModeIsInternal(t *testing.T) {
	d := newTestDirect(t)
	assert.Equal(t, netmode.Internal, d.Mode())
}
