package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shokken/config"
	"shokken/model"
)

// dropConnection はHTTP応答を返さずTCP接続を切断し、接続エラーを発生させます。
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("test server does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

func okEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// newTestClient は待機を実時間でなく記録で置き換えたクライアントを返します。
func newTestClient(internal, external string) (*Client, *[]time.Duration) {
	c := New(config.APIConfig{InternalBaseURL: internal, ExternalBaseURL: external})
	sleeps := &[]time.Duration{}
	c.sleep = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return c, sleeps
}

func TestRequestSucceedsOnThirdAttempt(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			dropConnection(w)
			return
		}
		okEnvelope(w, []int{1})
	}))
	defer srv.Close()

	// 内部・外部を同一URLにしてフェイルオーバーを無効化し、リトライだけを見る
	c, sleeps := newTestClient(srv.URL, srv.URL)

	env, err := c.Request(context.Background(), http.MethodGet, "/api/clients", nil, nil)
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
}

func TestRequestStopsAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		dropConnection(w)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL, srv.URL)

	_, err := c.Request(context.Background(), http.MethodGet, "/api/clients", nil, nil)
	require.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
}

func TestFailoverSwitchesOnceAndSticks(t *testing.T) {
	var internalCalls, externalCalls atomic.Int64

	internalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalCalls.Add(1)
		dropConnection(w)
	}))
	defer internalSrv.Close()

	externalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		externalCalls.Add(1)
		okEnvelope(w, nil)
	}))
	defer externalSrv.Close()

	c, sleeps := newTestClient(internalSrv.URL, externalSrv.URL)
	require.False(t, c.FailedOver())

	env, err := c.Request(context.Background(), http.MethodGet, "/api/fees", nil, nil)
	require.NoError(t, err)
	assert.True(t, env.Success)

	// 内部URLでの接続失敗1回で切替、外部側は新しい試行予算で成功
	assert.Equal(t, int64(1), internalCalls.Load())
	assert.Equal(t, int64(1), externalCalls.Load())
	assert.True(t, c.FailedOver())
	assert.Equal(t, externalSrv.URL, c.BaseURL())
	assert.Empty(t, *sleeps)

	// 以後のリクエストは常に外部URLへ向かい、二度と切り替わりません
	_, err = c.Request(context.Background(), http.MethodGet, "/api/fees", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), internalCalls.Load())
	assert.Equal(t, int64(2), externalCalls.Load())
	assert.False(t, c.failOver())
}

func TestUnauthorizedClearsSessionWithoutRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL, srv.URL)
	c.sess.set("stale-token", &model.User{ID: 1, Username: "sato"})
	require.NotEmpty(t, c.Token())

	_, err := c.Request(context.Background(), http.MethodGet, "/api/users", nil, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(1), calls.Load())
	assert.Empty(t, *sleeps)
	assert.Empty(t, c.Token())
	assert.Nil(t, c.CurrentUser())
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "boom"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, srv.URL)

	_, err := c.Request(context.Background(), http.MethodGet, "/api/clients", nil, nil)
	require.ErrorIs(t, err, ErrRequest)
	assert.Equal(t, int64(1), calls.Load())
}

func TestLoginSuccessStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		// ログイン要求には古いトークンを付けません
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "issued-token",
			"user":    model.User{ID: 7, Username: "tanaka", Name: "田中"},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, srv.URL)

	user, err := c.Login(context.Background(), "tanaka", "secret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "tanaka", user.Username)
	assert.Equal(t, "issued-token", c.Token())
	require.NotNil(t, c.CurrentUser())
	assert.Equal(t, int64(7), c.CurrentUser().ID)
}

func TestLoginRejectionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "bad credentials"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, srv.URL)

	user, err := c.Login(context.Background(), "tanaka", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, c.Token())
}

func TestLogoutAlwaysClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, srv.URL)
	c.sess.set("tok", &model.User{ID: 1})

	c.Logout(context.Background())
	assert.Empty(t, c.Token())
	assert.Nil(t, c.CurrentUser())
}
