// Package datasource は「内部=直接SQL / 外部=REST」の分岐を一つの
// 多態境界に集約します。各エンティティのファサードは DataSource を
// 一つ持ち、どちらの経路が実行されたかを意識しません。
package datasource

import (
	"context"
	"errors"
	"io"
	"net/url"

	"shokken/netmode"
)

// ErrNotFound は単一取得で対象が存在しなかった場合に返されます。
var ErrNotFound = errors.New("datasource: record not found")

// Op は1つの操作を両経路ぶん記述します。SQL 側と REST 側の定義は
// database パッケージに集約し、ここでは実行だけを行います。
type Op struct {
	// 内部モード (直接SQL)
	SQL  string
	Args []any

	// 外部モード (REST)
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// FileUpload は添付ファイル登録の入力です。
type FileUpload struct {
	ScheduleID int64
	FileName   string
	Reader     io.Reader
}

// FileDownload は添付ファイル取得の入力です。
type FileDownload struct {
	AttachmentID int64
	Writer       io.Writer
}

// DataSource はエンティティ操作の実行経路です。
// 実装は Direct (接続プール + SQL) と Remote (ResilientなRESTクライアント) の
// 二つで、どちらも同じ形の結果を返します。
type DataSource interface {
	// Select は複数行を dest (スライスのポインタ) へ取得します。
	Select(ctx context.Context, dest any, op Op) error
	// Get は1行を dest へ取得します。見つからない場合は ErrNotFound です。
	Get(ctx context.Context, dest any, op Op) error
	// Exec は更新系の操作を実行し、影響行数を返します。
	Exec(ctx context.Context, op Op) (int64, error)
	// Create は作成系の操作を実行し、新規IDを返します。
	Create(ctx context.Context, op Op) (int64, error)
	// Ensure はテーブルの存在を冪等に保証します。外部モードでは何もしません
	// (スキーマ管理はAPIサーバー側の責務)。
	Ensure(ctx context.Context, table, ddl string) error
	// UploadFile / DownloadFile は添付ファイル転送です。失敗しても
	// エラーにせず (成功フラグ, メッセージ) を返します。
	UploadFile(ctx context.Context, f FileUpload) (bool, string)
	DownloadFile(ctx context.Context, f FileDownload) (bool, string)
	// Mode はこのデータソースの接続モードを返します。
	Mode() netmode.Mode
}
