package netmode

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shokken/config"
)

func TestDetectHonorsExplicitOverride(t *testing.T) {
	// 明示指定があれば疎通確認は行われません。到達不能なホストを
	// 指定しても即座に返ることで確認します。
	cfg := config.ModeConfig{Mode: "internal", ProbeHost: "192.0.2.1", ProbePort: 1}
	assert.Equal(t, Internal, Detect(cfg))

	cfg.Mode = "external"
	assert.Equal(t, External, Detect(cfg))
}

func TestDetectProbeReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := config.ModeConfig{ProbeHost: "127.0.0.1", ProbePort: port}
	assert.Equal(t, Internal, Detect(cfg))
}

func TestDetectProbeUnreachableFallsBackToExternal(t *testing.T) {
	// 一度開いてすぐ閉じたポートへ疎通確認し、接続拒否が External に
	// 倒れることを確認します。Detect はエラーを返しません。
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.ModeConfig{ProbeHost: "127.0.0.1", ProbePort: port}
	assert.Equal(t, External, Detect(cfg))
}

func TestSetModeRejectsUnknownValue(t *testing.T) {
	err := SetMode("offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "unknown", Mode(9).String())
	assert.Equal(t, "internal", fmt.Sprint(Internal))
}
