package config

import (
	"encoding/hex"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/furlabs/stabilitypool/crypto"
)

// Config holds everything cmd/stabilitypoold needs to wire and serve the
// engine: network addresses, the data directory, the admin signing key, and
// the addresses of the collaborators the engine calls into.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	AdminKey      string `toml:"AdminKey"`
	LogFile       string `toml:"LogFile"`

	// PoolAddress is the address the engine itself is known by: the
	// recipient of collateral offsets and the sender of FURUSD/FURFI payouts.
	PoolAddress string `toml:"PoolAddress"`
	// TroveManagerAddress is the only caller authorized to invoke Offset.
	TroveManagerAddress string `toml:"TroveManagerAddress"`

	// MinimumCollateralRatioBps is the minimum collateral ratio in basis
	// points. cmd/stabilitypoold does not read it: the engine's
	// under-collateralized-trove check for non-zero withdrawals is answered by
	// the wired system-health collaborator.
	MinimumCollateralRatioBps uint32 `toml:"MinimumCollateralRatioBps"`

	// IssuanceScheduleFile points at the time-decay curve community
	// issuance reads to determine how much LOAN to mint per trigger.
	IssuanceScheduleFile string `toml:"IssuanceScheduleFile"`

	// Paused freezes every Stability Pool operation when true, for an
	// operator to flip during an incident without redeploying.
	Paused bool `toml:"Paused"`

	// AuthEnabled turns on bearer-token authentication for every
	// depositor/Trove-Manager write route. Left false only for local/dev
	// deployments with no identity provider to hand out tokens.
	AuthEnabled bool `toml:"AuthEnabled"`
	// AuthHMACSecret signs and verifies issued JWTs.
	AuthHMACSecret string `toml:"AuthHMACSecret"`
	AuthIssuer     string `toml:"AuthIssuer"`
	AuthAudience   string `toml:"AuthAudience"`
	// AuthClockSkewSeconds is a time.Duration flattened to seconds since
	// BurntSushi/toml has no native duration decoding.
	AuthClockSkewSeconds int `toml:"AuthClockSkewSeconds"`
}

// Load reads the configuration at path, generating a default file with a
// fresh admin key on first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.AdminKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.AdminKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file. PoolAddress
// is derived from the generated admin key so the file is immediately usable
// in a single-node bootstrap; TroveManagerAddress gets its own generated key
// since it names a distinct, external collaborator process.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	troveManagerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:             ":8080",
		DataDir:                   "./stabilitypool-data",
		AdminKey:                  hex.EncodeToString(key.Bytes()),
		PoolAddress:               key.PubKey().Address().String(),
		TroveManagerAddress:       troveManagerKey.PubKey().Address().String(),
		MinimumCollateralRatioBps: 11000,
		IssuanceScheduleFile:      "./issuance-schedule.toml",
		AuthEnabled:               false,
		AuthClockSkewSeconds:      120,
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
