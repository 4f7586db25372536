// Package api は外部モードで全エンティティ操作を担う REST クライアントです。
// 全リクエストに共通のタイムアウト・リトライ・フェイルオーバー制御を適用し、
// ベアラーセッションを管理します。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shokken/config"
	"shokken/logging"
	"shokken/model"
)

const (
	connectTimeout  = 5 * time.Second
	readTimeout     = 30 * time.Second
	fileReadTimeout = 60 * time.Second
	maxAttempts     = 3

	loginPath = "/api/auth/login"
)

// Envelope は API 応答の共通形式です。
// 一覧系は data に配列、作成系は data.id に新規IDが入ります。
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Token   string          `json:"token,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
}

// Client は REST クライアントです。ベースURLの内部→外部フェイルオーバーは
// プロセス内で一度だけ起こり、以後戻りません。
type Client struct {
	internalBase string
	externalBase string

	mu         sync.Mutex
	base       string
	failedOver bool

	httpc *http.Client
	filec *http.Client
	sess  session

	// テストから差し替えるための待機関数
	sleep func(time.Duration)

	log zerolog.Logger
}

// New は設定からクライアントを作ります。ベースURLはまず内部候補を使います。
func New(cfg config.APIConfig) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	fileTransport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: fileReadTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	internal := cfg.InternalBaseURL
	if internal == "" {
		internal = config.DefaultInternalBaseURL
	}
	external := cfg.ExternalBaseURL
	if external == "" {
		external = config.DefaultExternalBaseURL
	}

	return &Client{
		internalBase: strings.TrimRight(internal, "/"),
		externalBase: strings.TrimRight(external, "/"),
		base:         strings.TrimRight(internal, "/"),
		httpc:        &http.Client{Transport: transport},
		filec:        &http.Client{Transport: fileTransport},
		sleep:        time.Sleep,
		log:          logging.WithComponent("api"),
	}
}

// BaseURL は現在のベースURLを返します。
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// FailedOver は外部URLへの切替が起きたかどうかを返します。
func (c *Client) FailedOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failedOver
}

// Token は保持中のベアラートークンを返します。未ログイン時は空文字列です。
func (c *Client) Token() string {
	return c.sess.Token()
}

// CurrentUser はログイン中の利用者を返します。未ログイン時は nil です。
func (c *Client) CurrentUser() *model.User {
	return c.sess.User()
}

// InvalidateSession はトークンと利用者キャッシュを破棄します。
func (c *Client) InvalidateSession() {
	c.sess.clear()
}

// Request は JSON リクエストを1回分のリトライ予算付きで実行します。
// 接続エラー・タイムアウトは最大3回まで指数バックオフ(1s, 2s)でリトライし、
// それ以外の失敗は即座に打ち切ります。
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (*Envelope, error) {
	return c.requestAttempts(ctx, method, path, body, query, true)
}

func (c *Client) requestAttempts(ctx context.Context, method, path string, body any, query url.Values, allowFailover bool) (*Envelope, error) {
	var lastErr error
	var timeouts, connErrs int

	for attempt := 0; attempt < maxAttempts; attempt++ {
		env, err := c.do(ctx, method, path, body, query)
		if err == nil {
			return env, nil
		}
		if errors.Is(err, ErrSessionExpired) {
			// 認証切れはリトライ対象外。セッションは do 側で破棄済み。
			return nil, err
		}

		lastErr = err
		switch {
		case isTimeout(err):
			timeouts++
			c.log.Warn().Str("method", method).Str("path", path).
				Int("attempt", attempt+1).Err(err).Msg("request timed out")
		case isConnError(err):
			connErrs++
			c.log.Warn().Str("method", method).Str("path", path).
				Int("attempt", attempt+1).Err(err).Msg("connection error")
			if allowFailover && c.failOver() {
				// 内部URLへの接続失敗。外部URLへ恒久的に切り替え、
				// 同じ呼び出しを新しいリトライ予算でやり直す。
				return c.requestAttempts(ctx, method, path, body, query, false)
			}
		default:
			// 接続・タイムアウト以外はリトライしない
			return nil, fmt.Errorf("%w: %v", ErrRequest, err)
		}

		if attempt < maxAttempts-1 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Info().Dur("wait", wait).Int("next_attempt", attempt+2).Msg("retrying request")
			c.sleep(wait)
		}
	}

	c.log.Error().Str("method", method).Str("path", path).
		Int("timeouts", timeouts).Int("conn_errors", connErrs).
		Msg("request failed after all attempts")

	if timeouts >= connErrs && timeouts > 0 {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, lastErr)
	}
	if connErrs > 0 {
		return nil, fmt.Errorf("%w: %v", ErrConnection, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrRequest, lastErr)
}

// failOver は内部URL使用中の接続失敗時に外部URLへ切り替えます。
// 切替はプロセス内で一度だけで、以後内部URLが復活しても戻しません。
func (c *Client) failOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failedOver || c.base != c.internalBase || c.internalBase == c.externalBase {
		return false
	}
	c.base = c.externalBase
	c.failedOver = true
	c.log.Warn().Str("base_url", c.base).Msg("switched to external base URL")
	return true
}

// do は1回分のHTTP呼び出しを実行してエンベロープを返します。
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (*Envelope, error) {
	reqURL := c.BaseURL() + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.sess.Token(); token != "" && path != loginPath {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// 認証切れ。トークンと利用者キャッシュを破棄して再ログインを促す。
		c.sess.clear()
		c.log.Warn().Str("path", path).Msg("received 401, session cleared")
		return nil, ErrSessionExpired
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, msg)
	}

	return &env, nil
}

// Login は認証を行い、成功時はトークンと利用者情報をメモリに保持します。
// 認証失敗 (非2xx または success:false) はエラーではなく nil を返します。
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	payload := map[string]string{"username": username, "password": password}
	env, err := c.Request(ctx, http.MethodPost, loginPath, payload, nil)
	if err != nil {
		if errors.Is(err, ErrRequest) {
			c.log.Info().Str("username", username).Msg("login rejected by server")
			return nil, nil
		}
		return nil, err
	}
	if !env.Success || env.Token == "" {
		c.log.Info().Str("username", username).Msg("login failed")
		return nil, nil
	}

	var user model.User
	if len(env.User) > 0 {
		if err := json.Unmarshal(env.User, &user); err != nil {
			return nil, fmt.Errorf("%w: malformed user payload: %v", ErrRequest, err)
		}
	}
	c.sess.set(env.Token, &user)
	c.log.Info().Str("username", username).Msg("login succeeded")
	return &user, nil
}

// Logout はサーバーへの通知を試みた後、必ずローカルのセッションを破棄します。
// サーバー通知の失敗は握りつぶします。
func (c *Client) Logout(ctx context.Context) {
	if c.sess.Token() != "" {
		if _, err := c.Request(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
			c.log.Warn().Err(err).Msg("logout notification failed (ignored)")
		}
	}
	c.sess.clear()
}

// isTimeout はタイムアウト系の失敗かどうかを判定します。
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isConnError は接続系の失敗かどうかを判定します。
// タイムアウト判定の後に呼ぶ前提です。
func isConnError(err error) bool {
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		// url.Error で包まれた非タイムアウトの失敗は接続失敗として扱う
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
