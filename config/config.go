// Package config holds the operator-facing settings of the bounty ledger:
// data directory, network selection, node RPC endpoint, and logging. The
// on-disk format is one key=value pair per line with # comments.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all operator settings.
type Config struct {
	// DataDir is the root directory for the ledger database and key files.
	DataDir string

	// Network selects the chain: "mainnet", "testnet", or "regtest".
	Network string

	// RPCURL is the node JSON-RPC endpoint used for beacons and broadcast.
	RPCURL string

	// RPCUser and RPCPass are the node's basic-auth credentials.
	RPCUser string
	RPCPass string

	// BeaconConfirmations is how many blocks past the selection height a
	// beacon block must be buried before outcomes are computed from it.
	BeaconConfirmations uint64

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// LogFile is the log destination; empty means stderr.
	LogFile string
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:             filepath.Join(home, ".bounty"),
		Network:             "mainnet",
		RPCURL:              "http://127.0.0.1:8332",
		BeaconConfirmations: 1,
		LogLevel:            "info",
	}
}

// DBPath returns the ledger database location under the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// LoadConfig reads a key=value config file. Unknown keys are ignored so a
// config written by a newer version still loads.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "network":
			cfg.Network = value
		case "rpcurl":
			cfg.RPCURL = value
		case "rpcuser":
			cfg.RPCUser = value
		case "rpcpass":
			cfg.RPCPass = value
		case "beaconconfirmations":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
			}
			cfg.BeaconConfirmations = n
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration in key=value form, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "datadir=%s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network=%s\n", cfg.Network)
	fmt.Fprintf(&b, "rpcurl=%s\n", cfg.RPCURL)
	fmt.Fprintf(&b, "rpcuser=%s\n", cfg.RPCUser)
	fmt.Fprintf(&b, "rpcpass=%s\n", cfg.RPCPass)
	fmt.Fprintf(&b, "beaconconfirmations=%d\n", cfg.BeaconConfirmations)
	fmt.Fprintf(&b, "loglevel=%s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile=%s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
