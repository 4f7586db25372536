// Package dbpool は内部モード用の直接DB接続プールです。
// プーリングはあくまで最適化であり、プールが使えない場合も
// 都度接続へフォールバックして動作を継続します。
package dbpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"shokken/config"
	"shokken/logging"
	"shokken/netmode"
)

// ErrExternalMode は外部モードのプロセスが直接DB接続を要求した場合に返されます。
// これは呼び出し側の契約違反であり、フォールバックせずに即座に失敗させます。
var ErrExternalMode = errors.New("dbpool: direct database access requested in external mode")

// Config はプールの設定です。database/sql の対応する項目へ反映します。
// MinIdle / MaxUsesPerConn は設定として受理しますが database/sql には
// 相当する制御が無いため、それぞれ MaxIdle と ConnMaxLifetime で近似します。
type Config struct {
	MaxConnections   int
	MinIdle          int
	MaxIdle          int
	ValidateOnBorrow bool
	MaxUsesPerConn   int           // 0 = 無制限
	ConnMaxLifetime  time.Duration // 0 = 無制限
}

// DefaultConfig は既定のプール設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxConnections:   20,
		MinIdle:          3,
		MaxIdle:          10,
		ValidateOnBorrow: true,
	}
}

// Pool は有限個の直接DB接続を管理します。初回の Acquire で遅延初期化されます。
type Pool struct {
	mode   netmode.Mode
	cfg    Config
	driver string
	dsn    string

	mu sync.RWMutex
	db *sqlx.DB

	log zerolog.Logger
}

// New は DBConfig から MySQL 向けのプールを作ります。この時点では接続しません。
func New(mode netmode.Mode, dbCfg config.DBConfig, cfg Config) *Pool {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s",
		dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.Database, dbCfg.Charset)
	return NewWithDSN(mode, "mysql", dsn, cfg)
}

// NewWithDSN はドライバとDSNを直接指定してプールを作ります(テスト用途)。
func NewWithDSN(mode netmode.Mode, driver, dsn string, cfg Config) *Pool {
	if cfg.MaxConnections <= 0 {
		cfg = DefaultConfig()
	}
	return &Pool{
		mode:   mode,
		cfg:    cfg,
		driver: driver,
		dsn:    dsn,
		log:    logging.WithComponent("dbpool"),
	}
}

// ensureDB はプール本体を check-lock-check で遅延初期化します。
// 複数の呼び出し元が初回接続要求で競合してもプールは一つしか作られません。
func (p *Pool) ensureDB() (*sqlx.DB, error) {
	p.mu.RLock()
	db := p.db
	p.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db, nil
	}

	db, err := sqlx.Open(p.driver, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("pool init failed: %w", err)
	}
	db.SetMaxOpenConns(p.cfg.MaxConnections)
	db.SetMaxIdleConns(p.cfg.MaxIdle)
	db.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)

	p.db = db
	p.log.Info().
		Int("max_connections", p.cfg.MaxConnections).
		Int("max_idle", p.cfg.MaxIdle).
		Msg("connection pool initialized")
	return db, nil
}

// Acquire は生きている接続を一つ貸し出します。プールが満杯のときは
// 空きが出るまでブロックします(エラーにはしません)。
// 外部モードでの呼び出しは契約違反として ErrExternalMode を返します。
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	if p.mode == netmode.External {
		p.log.Error().Msg("Acquire called while in external mode")
		return nil, ErrExternalMode
	}

	db, err := p.ensureDB()
	if err != nil {
		// プールが作れなくても都度接続で継続する
		p.log.Warn().Err(err).Msg("pool unavailable, falling back to unpooled connection")
		return p.acquireUnpooled(ctx)
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if p.cfg.ValidateOnBorrow {
		if err := ping(ctx, conn); err != nil {
			// 死んだ接続は破棄して一度だけ取り直す
			p.log.Warn().Err(err).Msg("borrowed connection failed validation, replacing")
			conn.Close()
			conn, err = db.Connx(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to acquire replacement connection: %w", err)
			}
			if err := ping(ctx, conn); err != nil {
				conn.Close()
				return nil, fmt.Errorf("connection validation failed: %w", err)
			}
		}
	}

	return &Handle{conn: conn}, nil
}

// acquireUnpooled はプール無しで専用のDB接続を開きます。
// Release で接続ごと閉じられます。
func (p *Pool) acquireUnpooled(ctx context.Context) (*Handle, error) {
	db, err := sqlx.Open(p.driver, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open unpooled connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open unpooled connection: %w", err)
	}
	return &Handle{conn: conn, own: db}, nil
}

// Close はプール本体を閉じます。貸出中の接続が返却されるまで待ちます。
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func ping(ctx context.Context, conn *sqlx.Conn) error {
	var one int
	return conn.QueryRowxContext(ctx, "SELECT 1").Scan(&one)
}

// Handle は貸し出された1本の接続です。取得から Release までの間、
// 呼び出し元が排他的に所有します。成功・失敗いずれの経路でも必ず
// Release してください。
type Handle struct {
	conn     *sqlx.Conn
	own      *sqlx.DB // 都度接続フォールバック時のみ非nil
	released bool
}

// Conn は束縛された接続を返します。
func (h *Handle) Conn() *sqlx.Conn {
	return h.conn
}

// Release は接続をプールへ返却します。健全性を失った接続は
// database/sql 側で破棄され、アイドル集合へは戻りません。
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.conn.Close()
	if h.own != nil {
		h.own.Close()
	}
}
