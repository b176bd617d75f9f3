// Package config loads the chaincode process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Config controls how the chaincode process starts and logs.
type Config struct {
	// ServerAddress switches to chaincode-as-a-service mode when set.
	ServerAddress string `env:"CHAINCODE_SERVER_ADDRESS"`
	ChaincodeID   string `env:"CHAINCODE_ID"`

	TLSDisabled      bool   `env:"CHAINCODE_TLS_DISABLED"         envDefault:"true"`
	TLSKeyFile       string `env:"CHAINCODE_TLS_KEY_FILE"`
	TLSCertFile      string `env:"CHAINCODE_TLS_CERT_FILE"`
	TLSClientCACerts string `env:"CHAINCODE_CLIENT_CA_CERT_FILE"`

	LogSpec   string `env:"PROVENANCE_LOG_SPEC"        envDefault:"info"`
	LogFormat string `env:"PROVENANCE_LOG_FORMAT"`

	ContractVersion string `env:"PROVENANCE_CONTRACT_VERSION" envDefault:"1.0.0"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AsService reports whether the chaincode runs as an external service.
func (c Config) AsService() bool {
	return c.ServerAddress != ""
}

// Validate rejects combinations the shim cannot start with.
func (c Config) Validate() error {
	if c.AsService() && c.ChaincodeID == "" {
		return errors.New("CHAINCODE_ID is required when CHAINCODE_SERVER_ADDRESS is set")
	}
	if c.AsService() && !c.TLSDisabled && (c.TLSKeyFile == "" || c.TLSCertFile == "") {
		return errors.New("CHAINCODE_TLS_KEY_FILE and CHAINCODE_TLS_CERT_FILE are required when TLS is enabled")
	}
	return nil
}

// TLSProperties loads the PEM material for the chaincode server.
func (c Config) TLSProperties() (shim.TLSProperties, error) {
	if c.TLSDisabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(c.TLSKeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read TLS key: %w", err)
	}
	cert, err := os.ReadFile(c.TLSCertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read TLS cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if c.TLSClientCACerts != "" {
		ca, err := os.ReadFile(c.TLSClientCACerts)
		if err != nil {
			return shim.TLSProperties{}, fmt.Errorf("read client CA certs: %w", err)
		}
		props.ClientCACerts = ca
	}
	return props, nil
}
