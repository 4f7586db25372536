// Package database は各エンティティ操作の定義 (SQLとRESTの両面) を集約します。
// 同じ定義をクライアント側のファサードとAPIサーバーのハンドラが共有するため、
// 経路間で挙動がずれません。実行は datasource パッケージが行います。
package database

// CountRow は件数取得の結果行です。
type CountRow struct {
	Count int64 `db:"count" json:"count"`
}
