// Package netmode は起動時に内部ネットワーク(直接DB接続)か
// 外部ネットワーク(API経由)かを一度だけ判定します。
package netmode

import (
	"fmt"
	"net"
	"time"

	"shokken/config"
	"shokken/logging"
)

// Mode は接続モードを表します。プロセス内で一度解決したら変化しません。
type Mode int

const (
	// Internal は社内LANから直接DBへ接続するモードです。
	Internal Mode = iota
	// External は REST API 経由で操作するモードです。
	External
)

func (m Mode) String() string {
	switch m {
	case Internal:
		return "internal"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// ProbeTimeout は内部DBホストへの疎通確認のタイムアウトです。
const ProbeTimeout = 1 * time.Second

// Detect は接続モードを判定します。必ず値を返し、エラーは返しません。
// 設定で明示されていればそれを優先し、そうでなければ内部DBホストへの
// TCP接続を試みます。接続失敗・名前解決失敗などは全て「到達不能」として
// External に倒します(疎通失敗はモード選択の材料であって異常ではない)。
func Detect(cfg config.ModeConfig) Mode {
	log := logging.WithComponent("netmode")

	switch cfg.Mode {
	case "internal":
		log.Info().Msg("access mode forced to internal by config")
		return Internal
	case "external":
		log.Info().Msg("access mode forced to external by config")
		return External
	}

	addr := net.JoinHostPort(cfg.ProbeHost, fmt.Sprintf("%d", cfg.ProbePort))
	conn, err := net.DialTimeout("tcp", addr, ProbeTimeout)
	if err != nil {
		log.Info().Str("addr", addr).Err(err).
			Msg("internal DB host unreachable, using external mode")
		return External
	}
	conn.Close()

	log.Info().Str("addr", addr).Msg("internal DB host reachable, using internal mode")
	return Internal
}

// SetMode はモードの手動指定を設定ファイルへ保存します。
// 空文字列を渡すと自動判定に戻ります。次回起動から有効です。
func SetMode(mode string) error {
	if mode != "internal" && mode != "external" && mode != "" {
		return fmt.Errorf("invalid mode: %q", mode)
	}
	cfg := config.GetModeConfig()
	cfg.Mode = mode
	if err := config.SaveModeConfig(cfg); err != nil {
		return fmt.Errorf("failed to save mode config: %w", err)
	}
	log := logging.WithComponent("netmode")
	log.Info().Str("mode", mode).Msg("access mode override saved")
	return nil
}
