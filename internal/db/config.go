package db

import "time"

// Config describes how to reach the Dendrite catalog database.
type Config struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}
