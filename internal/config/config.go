package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
)

// DefaultConfigFile is the Dendrite config read when -c is not given.
const DefaultConfigFile = "config.yaml"

type Settings struct {
	ConnectionString string
	MediaPath        string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	RedisAddr        string
	RedisPassword    string
	PushgatewayURL   string
}

// Load reads the database connection string and the media base path from a
// Dendrite config file. Environment variables (optionally from .env) take
// precedence, so the file may be absent when both are set there.
func Load(configFile string) (*Settings, error) {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logger.Debug(ctx, "No .env file found; proceeding with OS environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)

	if configFile == "" {
		configFile = DefaultConfigFile
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	fileErr := v.ReadInConfig()
	if fileErr != nil {
		logger.Debugf(ctx, "could not read config file %s: %v", configFile, fileErr)
	}

	connString := v.GetString("CLEANMEDIA_DB_CONNECTION_STRING")
	mediaPath := v.GetString("CLEANMEDIA_MEDIA_PATH")

	if fileErr != nil && (connString == "" || mediaPath == "") {
		if errors.Is(fileErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", configFile)
		}
		return nil, fmt.Errorf("could not read config file %s: %w", configFile, fileErr)
	}

	if connString == "" {
		connString = v.GetString("global.database.connection_string")
	}
	if connString == "" {
		connString = v.GetString("media_api.database.connection_string")
		if connString != "" {
			logger.Debug(ctx, "No database section in global, but one in media_api, using that")
		}
	}
	if mediaPath == "" {
		mediaPath = v.GetString("media_api.base_path")
	}

	if connString == "" {
		return nil, fmt.Errorf("database connection_string is required")
	}
	if mediaPath == "" {
		return nil, fmt.Errorf("media_api.base_path is required")
	}

	return &Settings{
		ConnectionString: connString,
		MediaPath:        mediaPath,
		MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime:  time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		PushgatewayURL:   v.GetString("PUSHGATEWAY_URL"),
	}, nil
}
