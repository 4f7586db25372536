package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger はプロセス全体で共有するロガーです。Init 後に使用してください。
var Logger zerolog.Logger

// Config はロガーの初期化設定です。
type Config struct {
	Level      string // "debug" / "info" / "warn" / "error"
	JSONOutput bool
	Output     io.Writer
}

// Init はグローバルロガーを初期化します。
// 接続モード判定やリトライの経過はここで設定したロガー経由で診断ログに残ります。
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent は component フィールド付きの子ロガーを返します。
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func init() {
	// Init 前に出力されたログを失わないための既定値
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}
