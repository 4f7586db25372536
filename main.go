package main

import (
	"context"
	"flag"
	"net/http"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"shokken/api"
	"shokken/apiserver"
	"shokken/config"
	"shokken/datasource"
	"shokken/dbpool"
	"shokken/logging"
	"shokken/netmode"
	"shokken/store"
)

const appVersion = "2.1.0"

// appContext はプロセス内で一度だけ組み立てる依存の束です。
// 接続モードはここで解決済みで、以後変化しません。
type appContext struct {
	mode    netmode.Mode
	store   *store.Store
	client  *api.Client // 外部モードのみ非nil
	version string

	unreadCount   atomic.Int64
	latestVersion atomic.Value // string
}

func main() {
	var (
		apiServer = flag.Bool("api-server", false, "run as the API server (always direct DB access)")
		addr      = flag.String("addr", "", "listen address (default :8080 for the API server, 127.0.0.1:8080 otherwise)")
		logLevel  = flag.String("log-level", "info", "log level (debug/info/warn/error)")
		logJSON   = flag.Bool("log-json", false, "emit JSON logs instead of console output")
		noBrowser = flag.Bool("no-browser", false, "do not open the browser on startup")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, JSONOutput: *logJSON})
	log := logging.WithComponent("main")

	if _, err := config.LoadAPIConfig(); err != nil {
		log.Warn().Err(err).Msg("failed to load API config, using defaults")
	}
	if _, err := config.LoadDBConfig(); err != nil {
		log.Warn().Err(err).Msg("failed to load DB config, using defaults")
	}
	modeCfg, err := config.LoadModeConfig()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load mode config, using defaults")
	}

	if *apiServer {
		runAPIServer(listenAddr(*addr, ":8080"))
		return
	}

	// クライアント側プロセス。接続モードはここで一度だけ解決します。
	mode := netmode.Detect(modeCfg)
	log.Info().Str("mode", mode.String()).Str("version", appVersion).Msg("starting shokken client")

	app := &appContext{mode: mode, version: appVersion}
	switch mode {
	case netmode.Internal:
		pool := dbpool.New(mode, config.GetDBConfig(), dbpool.DefaultConfig())
		defer pool.Close()
		app.store = store.New(datasource.NewDirect(pool))
	default:
		app.client = api.New(config.GetAPIConfig())
		app.store = store.New(datasource.NewRemote(app.client))
	}

	go app.pollMessages()
	go app.checkForUpdate()

	mux := http.NewServeMux()
	SetupRoutes(mux, app)

	listen := listenAddr(*addr, "127.0.0.1:8080")
	log.Info().Str("addr", listen).Msg("local UI server listening")

	if !*noBrowser {
		openBrowser("http://" + listen)
	}
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Fatal().Err(err).Msg("local UI server stopped")
	}
}

func runAPIServer(addr string) {
	log := logging.WithComponent("main")

	pool := dbpool.New(netmode.Internal, config.GetDBConfig(), dbpool.DefaultConfig())
	defer pool.Close()

	srv := apiserver.New(datasource.NewDirect(pool))
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatal().Err(err).Msg("API server stopped")
	}
}

func listenAddr(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return fallback
}

// pollMessages はログイン中の利用者の未読件数を定期取得します。
// 結果は appContext に保持され、/local/notifications が返します。
func (a *appContext) pollMessages() {
	log := logging.WithComponent("poll")
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		user := a.store.Auth.CurrentUser()
		if user == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		count := a.store.Messages.UnreadCount(ctx, user.ID)
		cancel()

		prev := a.unreadCount.Swap(count)
		if count > prev {
			log.Info().Int64("unread", count).Msg("new messages arrived")
		}
	}
}

// checkForUpdate は起動時に一度だけ配布バージョンを確認します。
// 設定テーブルの latest_version と起動中バージョンの差分を通知に使います。
func (a *appContext) checkForUpdate() {
	log := logging.WithComponent("update")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	latest := a.store.Settings.Get(ctx, "latest_version")
	if latest == "" {
		return
	}
	a.latestVersion.Store(latest)
	if latest != a.version {
		log.Info().Str("current", a.version).Str("latest", latest).
			Msg("a newer version is available")
	}
}

func openBrowser(url string) {
	log := logging.WithComponent("main")
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to open browser")
	}
}
