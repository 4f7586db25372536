// Package store は各エンティティのファサードです。呼び出し側 (UI層) は
// 接続モードを意識せず、常に同じ呼び出し口を使います。
//
// エラーの扱い: 読み取り系は空、単一取得は nil、作成は 0、更新系は false を
// 返し、エラー自体はログへ残して伝播させません。この「握りつぶして既定値」
// 方針は既存UIとの互換のため意図的なもので、修正対象ではありません。
package store

import (
	"strings"

	"github.com/rs/zerolog"

	"golang.org/x/text/width"

	"shokken/datasource"
	"shokken/logging"
	"shokken/netmode"
)

// Store は全ファサードの束です。main が一度だけ組み立てて配ります。
type Store struct {
	Users        *Users
	Clients      *Clients
	Schedules    *Schedules
	Fees         *Fees
	FoodTypes    *FoodTypes
	Settings     *Settings
	ActivityLogs *ActivityLogs
	Messages     *Messages
	Auth         Authenticator

	ds datasource.DataSource
}

// New はデータソースからファサード一式を組み立てます。
// 認証はデータソースの種別に応じて直接SQL版かAPI版が選ばれます。
func New(ds datasource.DataSource) *Store {
	log := logging.WithComponent("store")

	var auth Authenticator
	if r, ok := ds.(*datasource.Remote); ok {
		auth = newRemoteAuth(r.Client())
	} else {
		auth = newDirectAuth(ds)
	}

	return &Store{
		Users:        &Users{ds: ds, auth: auth, log: log},
		Clients:      &Clients{ds: ds, log: log},
		Schedules:    &Schedules{ds: ds, log: log},
		Fees:         &Fees{ds: ds, log: log},
		FoodTypes:    &FoodTypes{ds: ds, log: log},
		Settings:     &Settings{ds: ds, log: log},
		ActivityLogs: &ActivityLogs{ds: ds, log: log},
		Messages:     &Messages{ds: ds, log: log},
		Auth:         auth,
		ds:           ds,
	}
}

// Mode は解決済みの接続モードを返します。プロセス内で変化しません。
func (s *Store) Mode() netmode.Mode {
	return s.ds.Mode()
}

// normalizeKeyword は検索キーワードの全角英数・半角カナを畳み込みます。
// 全角で入力しても半角で保存されたデータに一致させるためです。
func normalizeKeyword(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// fail は握りつぶすエラーの記録です。失敗箇所のログは方針に関わらず必ず残します。
func fail(log zerolog.Logger, op string, err error) {
	log.Error().Err(err).Str("op", op).Msg("data access failed")
}
