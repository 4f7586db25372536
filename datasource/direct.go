package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"shokken/dbpool"
	"shokken/logging"
	"shokken/netmode"
)

// Direct は接続プール経由で直接SQLを実行するデータソースです。
// 接続は操作ごとにスコープ取得し、成功・失敗どちらの経路でも必ず返却します。
type Direct struct {
	pool *dbpool.Pool
	log  zerolog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

func NewDirect(pool *dbpool.Pool) *Direct {
	return &Direct{
		pool:    pool,
		log:     logging.WithComponent("datasource.direct"),
		ensured: make(map[string]bool),
	}
}

func (d *Direct) Mode() netmode.Mode {
	return netmode.Internal
}

func (d *Direct) Select(ctx context.Context, dest any, op Op) error {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.Release()

	if err := sqlx.SelectContext(ctx, h.Conn(), dest, op.SQL, op.Args...); err != nil {
		return fmt.Errorf("select failed: %w", err)
	}
	return nil
}

func (d *Direct) Get(ctx context.Context, dest any, op Op) error {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.Release()

	if err := sqlx.GetContext(ctx, h.Conn(), dest, op.SQL, op.Args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get failed: %w", err)
	}
	return nil
}

func (d *Direct) Exec(ctx context.Context, op Op) (int64, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer h.Release()

	res, err := h.Conn().ExecContext(ctx, op.SQL, op.Args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func (d *Direct) Create(ctx context.Context, op Op) (int64, error) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer h.Release()

	res, err := h.Conn().ExecContext(ctx, op.SQL, op.Args...)
	if err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new id: %w", err)
	}
	return id, nil
}

// Ensure はテーブルが無ければDDLを適用します。プロセス内で同じテーブルに
// 対しては一度しか確認しません。
func (d *Direct) Ensure(ctx context.Context, table, ddl string) error {
	d.mu.Lock()
	if d.ensured[table] {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	h, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.Release()

	// 存在確認に失敗したときだけDDLを流す (CREATE TABLE IF NOT EXISTS)
	var one int
	probeErr := h.Conn().QueryRowxContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
	if probeErr != nil && !errors.Is(probeErr, sql.ErrNoRows) {
		if _, err := h.Conn().ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to ensure table %s: %w", table, err)
		}
		d.log.Info().Str("table", table).Msg("table created")
	}

	d.mu.Lock()
	d.ensured[table] = true
	d.mu.Unlock()
	return nil
}

// 添付ファイルはBLOB列に格納します。ファイル系はOp経由ではなく
// 専用の経路で扱います (外部モードのマルチパート転送と対になるため)。
const (
	insertAttachmentSQL = `
		INSERT INTO schedule_attachments (schedule_id, file_name, stored_name, file_size, content)
		VALUES (?, ?, ?, ?, ?)`
	selectAttachmentContentSQL = `
		SELECT content FROM schedule_attachments WHERE id = ?`
)

func (d *Direct) UploadFile(ctx context.Context, f FileUpload) (bool, string) {
	content, err := io.ReadAll(f.Reader)
	if err != nil {
		return false, "ファイルの読み取りに失敗しました: " + err.Error()
	}

	h, err := d.pool.Acquire(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("attachment insert failed to acquire connection")
		return false, "データベースに接続できません"
	}
	defer h.Release()

	storedName := uuid.NewString()
	if _, err := h.Conn().ExecContext(ctx, insertAttachmentSQL,
		f.ScheduleID, f.FileName, storedName, len(content), content); err != nil {
		d.log.Error().Err(err).Int64("schedule_id", f.ScheduleID).Msg("attachment insert failed")
		return false, "ファイルの登録に失敗しました"
	}
	return true, ""
}

func (d *Direct) DownloadFile(ctx context.Context, f FileDownload) (bool, string) {
	h, err := d.pool.Acquire(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("attachment select failed to acquire connection")
		return false, "データベースに接続できません"
	}
	defer h.Release()

	var content []byte
	if err := h.Conn().QueryRowxContext(ctx, selectAttachmentContentSQL, f.AttachmentID).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, "添付ファイルが見つかりません"
		}
		d.log.Error().Err(err).Int64("attachment_id", f.AttachmentID).Msg("attachment select failed")
		return false, "ファイルの取得に失敗しました"
	}
	if _, err := f.Writer.Write(content); err != nil {
		return false, "ファイルの保存に失敗しました: " + err.Error()
	}
	return true, ""
}
