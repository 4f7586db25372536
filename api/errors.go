package api

import "errors"

// リトライ枯渇時はどの失敗クラスが支配的だったかで以下のいずれかを返します。
// メッセージはそのままUIのダイアログに表示されます。
var (
	// ErrTimeout はタイムアウトが支配的だった場合のエラーです。
	ErrTimeout = errors.New("サーバーの応答がありません。時間をおいて再度お試しください")
	// ErrConnection は接続失敗が支配的だった場合のエラーです。
	ErrConnection = errors.New("サーバーに接続できません。ネットワーク状態を確認してください")
	// ErrRequest は上記以外のリクエスト失敗です。リトライしません。
	ErrRequest = errors.New("リクエストの処理に失敗しました")
	// ErrSessionExpired は 401 応答を受けた場合のエラーです。再ログインが必要です。
	ErrSessionExpired = errors.New("セッションの有効期限が切れました。再度ログインしてください")
)
