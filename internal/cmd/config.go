package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the local participant's configuration. Session parameters
// here only matter to the client that creates the session; joiners adopt
// whatever the replicated session carries.
type Config struct {
	Session struct {
		Code          string `yaml:"code"`
		WagerAmount   string `yaml:"wager_amount"`
		TotalRounds   int    `yaml:"total_rounds"`
		RoundSeconds  int    `yaml:"round_seconds"`
		Nickname      string `yaml:"nickname"`
		CreateSession bool   `yaml:"create_session"`
	} `yaml:"session"`

	Nats struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Chain struct {
		RPCURL       string `yaml:"rpc_url"`
		ContractAddr string `yaml:"contract_addr"`
		ChainID      int64  `yaml:"chain_id"`
		WalletKey    string `yaml:"wallet_key"`
	} `yaml:"chain"`

	Archive struct {
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"archive"`

	Gateway struct {
		Addr string `yaml:"addr"`
	} `yaml:"gateway"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment overrides for everything secret or deployment-specific.
	config.Session.Code = getEnv("SESSION_CODE", config.Session.Code)
	config.Session.WagerAmount = getEnv("WAGER_AMOUNT", config.Session.WagerAmount)
	config.Session.Nickname = getEnv("NICKNAME", config.Session.Nickname)
	config.Nats.URL = getEnv("NATS_URL", config.Nats.URL)
	config.Chain.RPCURL = getEnv("CHAIN_RPC_URL", config.Chain.RPCURL)
	config.Chain.ContractAddr = getEnv("ESCROW_CONTRACT_ADDR", config.Chain.ContractAddr)
	config.Chain.WalletKey = getEnv("WALLET_KEY", config.Chain.WalletKey)
	config.Archive.DatabaseURL = getEnv("ARCHIVE_DATABASE_URL", config.Archive.DatabaseURL)
	config.Gateway.Addr = getEnv("GATEWAY_ADDR", config.Gateway.Addr)
	if config.Chain.ChainID == 0 {
		config.Chain.ChainID = int64(getEnvAsInt("CHAIN_ID", 0))
	}

	// Defaults.
	if config.Nats.URL == "" {
		config.Nats.URL = "nats://127.0.0.1:4222"
	}
	if config.Gateway.Addr == "" {
		config.Gateway.Addr = "127.0.0.1:8390"
	}
	if config.Session.TotalRounds == 0 {
		config.Session.TotalRounds = 3
	}
	if config.Session.RoundSeconds == 0 {
		config.Session.RoundSeconds = 60
	}

	if config.Session.Code == "" {
		return nil, fmt.Errorf("session code is required (SESSION_CODE)")
	}
	return &config, nil
}
