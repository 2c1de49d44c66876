package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testAdmin = "0x00000000000000000000000000000000000000A1"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REGISTRY_ADMIN", testAdmin)
	t.Setenv("REGISTRY_TOKEN_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, StorePostgres, cfg.Store)
	require.Equal(t, AuthToken, cfg.AuthMode)
	require.Equal(t, 60, cfg.RateLimit)

	genesis, err := cfg.Genesis()
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testAdmin), genesis.Admin)
	require.Equal(t, genesis.Admin, genesis.Royalty.Beneficiary)
	require.Equal(t, "ERC721Preset", genesis.Name)
}

func TestLoadConfigRequiresAdmin(t *testing.T) {
	t.Setenv("REGISTRY_ADMIN", "")
	t.Setenv("REGISTRY_TOKEN_SECRET", "secret")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{Store: StoreMemory, AuthMode: AuthHeader, Admin: testAdmin, Name: "N", Symbol: "S"}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.AuthMode = AuthToken
	require.ErrorContains(t, cfg.Validate(), "REGISTRY_TOKEN_SECRET")

	cfg = base()
	cfg.AppEnv = "production"
	require.Error(t, cfg.Validate(), "header auth is development only")

	cfg = base()
	cfg.Store = "sqlite"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.RoyaltyBPS = 10_001
	require.ErrorContains(t, cfg.Validate(), "REGISTRY_ROYALTY_BPS")

	cfg = base()
	cfg.RoyaltyReceiver = "d1"
	require.ErrorContains(t, cfg.Validate(), "REGISTRY_ROYALTY_RECEIVER")
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("dropped")
	logger.Warn("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["msg"])
	require.Equal(t, "nft-registry", line["service"])
}
