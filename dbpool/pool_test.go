package dbpool

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shokken/netmode"
)

func testPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	p := NewWithDSN(netmode.Internal, "sqlite3", dsn, cfg)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestAcquireAndQuery(t *testing.T) {
	p := testPool(t, DefaultConfig())
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer h.Release()

	_, err = h.Conn().ExecContext(ctx, `CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = h.Conn().ExecContext(ctx, `INSERT INTO things (name) VALUES (?)`, "a")
	require.NoError(t, err)

	var count int
	require.NoError(t, h.Conn().QueryRowxContext(ctx, `SELECT COUNT(*) FROM things`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAcquireRefusedInExternalMode(t *testing.T) {
	p := NewWithDSN(netmode.External, "sqlite3", ":memory:", DefaultConfig())

	h, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrExternalMode)
	assert.Nil(t, h)
}

func TestAcquireBlocksWhenPoolExhausted(t *testing.T) {
	p := testPool(t, Config{MaxConnections: 1, MaxIdle: 1, ValidateOnBorrow: true})
	ctx := context.Background()

	h1, err := p.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan *Handle, 1)
	go func() {
		h, err := p.Acquire(ctx)
		if err != nil {
			acquired <- nil
			return
		}
		acquired <- h
	}()

	// 満杯の間はブロックし、エラーにはなりません。
	select {
	case <-acquired:
		t.Fatal("second acquire returned while pool was exhausted")
	case <-time.After(200 * time.Millisecond):
	}

	h1.Release()

	select {
	case h2 := <-acquired:
		require.NotNil(t, h2)
		h2.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	p := testPool(t, Config{MaxConnections: 1, MaxIdle: 1})
	ctx := context.Background()

	h1, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer h1.Release()

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(waitCtx)
	require.Error(t, err)
}

func TestAcquireUnknownDriverFailsWithoutPanic(t *testing.T) {
	p := NewWithDSN(netmode.Internal, "no-such-driver", "dsn", DefaultConfig())

	h, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.Nil(t, h)
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := testPool(t, DefaultConfig())

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)

	h.Release()
	h.Release() // 二重返却は無害

	var nilHandle *Handle
	nilHandle.Release()
}
