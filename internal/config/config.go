package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"

	DefaultPath = "config/bank.yaml"

	defaultDataFile         = "banking_data.json"
	defaultDBMaxConnections = 4
	defaultSnapshotsKept    = 10
	maxNodeID               = 1023
)

type AppConfig struct {
	Storage          string
	DataFile         string
	DBConnStr        string
	DBMaxConnections int32
	SnapshotsKept    int
	NodeID           int64
	BcryptCost       int
	LogLevel         string
	LogFormat        string
	ENV              string
}

type Config struct {
	Storage          string `yaml:"storage"`
	DataFile         string `yaml:"dataFile"`
	DbURLFormat      string `yaml:"dbURLFormat"`
	DBMaxConnections int32  `yaml:"dbMaxConnections"`
	DBUsername       string `yaml:"dbUsername"`
	DBPassword       string `yaml:"dbPassword"`
	SnapshotsKept    int    `yaml:"snapshotsKept"`
	NodeID           int64  `yaml:"nodeID"`
	BcryptCost       int    `yaml:"bcryptCost"`
	LogLevel         string `yaml:"logLevel"`
	LogFormat        string `yaml:"logFormat"`
}

// Defaults is used as-is when the base file does not exist.
func Defaults() Config {
	return Config{
		Storage:          StorageFile,
		DataFile:         defaultDataFile,
		DBMaxConnections: defaultDBMaxConnections,
		SnapshotsKept:    defaultSnapshotsKept,
		BcryptCost:       bcrypt.DefaultCost,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// LoadConfig reads basePath, then the optional override file picked by APP_ENV
// (config/bank.yaml + APP_ENV=prod -> config/bank.prod.yaml).
func LoadConfig(basePath string) (*AppConfig, error) {
	config := Defaults()

	baseConfigFile, err := os.ReadFile(basePath)

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read base config failed: %w", err)
	}

	if err == nil {
		err = yaml.Unmarshal(baseConfigFile, &config)

		if err != nil {
			return nil, fmt.Errorf("parse base config failed: %w", err)
		}
	}

	appEnv := os.Getenv("APP_ENV")

	if appEnv == "" {
		appEnv = "local"
	} else {
		overrideConfigFile, err := os.ReadFile(overridePath(basePath, appEnv))

		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read override config failed: %w", err)
		}

		if err == nil {
			var overrideConfig Config
			err = yaml.Unmarshal(overrideConfigFile, &overrideConfig)

			if err != nil {
				return nil, fmt.Errorf("parse override config failed: %w", err)
			}

			config = merge(config, overrideConfig)
		}
	}

	err = validateConfig(config)

	if err != nil {
		return nil, err
	}

	return toAppConfig(config, appEnv), nil
}

func overridePath(basePath, env string) string {
	return strings.TrimSuffix(basePath, ".yaml") + "." + env + ".yaml"
}

func merge(config, overrideConfig Config) Config {
	if overrideConfig.Storage != "" {
		config.Storage = overrideConfig.Storage
	}
	if overrideConfig.DataFile != "" {
		config.DataFile = overrideConfig.DataFile
	}
	if overrideConfig.DbURLFormat != "" {
		config.DbURLFormat = overrideConfig.DbURLFormat
	}
	if overrideConfig.DBMaxConnections != 0 {
		config.DBMaxConnections = overrideConfig.DBMaxConnections
	}
	if overrideConfig.DBUsername != "" {
		config.DBUsername = overrideConfig.DBUsername
	}
	if overrideConfig.DBPassword != "" {
		config.DBPassword = overrideConfig.DBPassword
	}
	if overrideConfig.SnapshotsKept != 0 {
		config.SnapshotsKept = overrideConfig.SnapshotsKept
	}
	if overrideConfig.NodeID != 0 {
		config.NodeID = overrideConfig.NodeID
	}
	if overrideConfig.BcryptCost != 0 {
		config.BcryptCost = overrideConfig.BcryptCost
	}
	if overrideConfig.LogLevel != "" {
		config.LogLevel = overrideConfig.LogLevel
	}
	if overrideConfig.LogFormat != "" {
		config.LogFormat = overrideConfig.LogFormat
	}

	return config
}

func validateConfig(config Config) error {
	switch config.Storage {
	case StorageFile:
		if config.DataFile == "" {
			return errors.New("data file is not set")
		}
	case StoragePostgres:
		if config.DbURLFormat == "" {
			return errors.New("DB URL format is not set")
		}

		if config.DBMaxConnections <= 0 {
			return errors.New("DB max connections is not set")
		}

		if config.DBUsername == "" {
			return errors.New("DB username is not set")
		}

		if config.DBPassword == "" {
			return errors.New("DB password is not set")
		}
	default:
		return fmt.Errorf("unknown storage %q", config.Storage)
	}

	if config.NodeID < 0 || config.NodeID > maxNodeID {
		return fmt.Errorf("node ID must be between 0 and %d", maxNodeID)
	}

	if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

func toAppConfig(config Config, env string) *AppConfig {
	appConfig := &AppConfig{
		Storage:          config.Storage,
		DataFile:         config.DataFile,
		DBMaxConnections: config.DBMaxConnections,
		SnapshotsKept:    config.SnapshotsKept,
		NodeID:           config.NodeID,
		BcryptCost:       config.BcryptCost,
		LogLevel:         config.LogLevel,
		LogFormat:        config.LogFormat,
		ENV:              env,
	}

	if config.Storage == StoragePostgres {
		appConfig.DBConnStr = fmt.Sprintf(config.DbURLFormat, config.DBUsername, config.DBPassword)
	}

	return appConfig
}
