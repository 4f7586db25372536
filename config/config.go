package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// APIConfig は外部モードで使用する API サーバーの接続先設定です。
// ExternalBaseURL が空の場合は既定の候補を使用します。
type APIConfig struct {
	InternalBaseURL string `json:"internalBaseURL"`
	ExternalBaseURL string `json:"externalBaseURL"`
}

// DBConfig は内部モードで使用する直接DB接続のパラメータです。
type DBConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Charset  string `json:"charset"`
}

// ModeConfig は接続モードの手動指定と疎通確認先を保持します。
// Mode が空文字列の場合は起動時に自動判定します。
type ModeConfig struct {
	Mode      string `json:"mode"` // "internal" / "external" / ""
	ProbeHost string `json:"probeHost"`
	ProbePort int    `json:"probePort"`
}

const (
	apiConfigPath  = "./shokken_api.json"
	dbConfigPath   = "./shokken_db.json"
	modeConfigPath = "./shokken_mode.json"

	DefaultInternalBaseURL = "http://192.168.0.96:8080"
	DefaultExternalBaseURL = "http://shokken.mydns.jp:8080"
	DefaultProbeHost       = "192.168.0.96"
	DefaultProbePort       = 3306
)

var (
	apiCfg  APIConfig
	dbCfg   DBConfig
	modeCfg ModeConfig
	mu      sync.RWMutex
)

// LoadAPIConfig は API 設定ファイルを読み込みます。ファイルが無い場合は既定値を返します。
func LoadAPIConfig() (APIConfig, error) {
	mu.Lock()
	defer mu.Unlock()

	cfg := APIConfig{
		InternalBaseURL: DefaultInternalBaseURL,
		ExternalBaseURL: DefaultExternalBaseURL,
	}

	file, err := os.ReadFile(apiConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			apiCfg = cfg
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(file, &cfg); err != nil {
		return apiCfg, fmt.Errorf("failed to parse %s: %w", apiConfigPath, err)
	}
	if cfg.InternalBaseURL == "" {
		cfg.InternalBaseURL = DefaultInternalBaseURL
	}
	if cfg.ExternalBaseURL == "" {
		cfg.ExternalBaseURL = DefaultExternalBaseURL
	}
	apiCfg = cfg
	return cfg, nil
}

// LoadDBConfig はDB接続設定ファイルを読み込みます。
func LoadDBConfig() (DBConfig, error) {
	mu.Lock()
	defer mu.Unlock()

	cfg := DBConfig{
		Host:    DefaultProbeHost,
		Port:    DefaultProbePort,
		Charset: "utf8mb4",
	}

	file, err := os.ReadFile(dbConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			dbCfg = cfg
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(file, &cfg); err != nil {
		return dbCfg, fmt.Errorf("failed to parse %s: %w", dbConfigPath, err)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultProbePort
	}
	if cfg.Charset == "" {
		cfg.Charset = "utf8mb4"
	}
	dbCfg = cfg
	return cfg, nil
}

// LoadModeConfig は接続モード設定ファイルを読み込みます。
func LoadModeConfig() (ModeConfig, error) {
	mu.Lock()
	defer mu.Unlock()

	cfg := ModeConfig{
		ProbeHost: DefaultProbeHost,
		ProbePort: DefaultProbePort,
	}

	file, err := os.ReadFile(modeConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			modeCfg = cfg
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(file, &cfg); err != nil {
		return modeCfg, fmt.Errorf("failed to parse %s: %w", modeConfigPath, err)
	}
	if cfg.ProbeHost == "" {
		cfg.ProbeHost = DefaultProbeHost
	}
	if cfg.ProbePort == 0 {
		cfg.ProbePort = DefaultProbePort
	}
	modeCfg = cfg
	return cfg, nil
}

// SaveModeConfig はモード設定を保存します。次回起動時は疎通確認をスキップします。
func SaveModeConfig(newCfg ModeConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if newCfg.ProbeHost == "" {
		newCfg.ProbeHost = DefaultProbeHost
	}
	if newCfg.ProbePort == 0 {
		newCfg.ProbePort = DefaultProbePort
	}

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(modeConfigPath, file, 0644); err != nil {
		return err
	}
	modeCfg = newCfg
	return nil
}

func GetAPIConfig() APIConfig {
	mu.RLock()
	defer mu.RUnlock()
	return apiCfg
}

func GetDBConfig() DBConfig {
	mu.RLock()
	defer mu.RUnlock()
	return dbCfg
}

func GetModeConfig() ModeConfig {
	mu.RLock()
	defer mu.RUnlock()
	return modeCfg
}
