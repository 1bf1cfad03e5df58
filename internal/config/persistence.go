package config

import (
	"time"

	"github.com/cockroachdb/errors"
)

type PersistenceConfig struct {
	// DBPath is the bolt file holding the state snapshot.
	// Default: "./data/clamm-engine.db"
	DBPath string

	// Enabled controls whether the state is restored on boot and saved
	// periodically and on shutdown.
	// Default: true
	Enabled bool

	// Interval is how often the state is snapshotted, in seconds.
	// Default: 30
	Interval int

	// EventsPath receives length-prefixed wire frames of every committed
	// event. Empty disables the log.
	EventsPath string
}

func (c *PersistenceConfig) Key() string {
	return PERSISTENCE_CONFIG_KEY
}

func (c *PersistenceConfig) Load() error {
	c.DBPath = GetEnvOrDefault("INVARIANT_DB_PATH", "./data/clamm-engine.db")
	c.Enabled = GetEnvOrDefaultBool("INVARIANT_PERSISTENCE_ENABLED", true)
	c.Interval = GetEnvOrDefaultInt("INVARIANT_PERSIST_INTERVAL", 30)
	c.EventsPath = GetEnvOrDefault("INVARIANT_EVENTS_PATH", "")
	return c.Validate()
}

func (c *PersistenceConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errors.New("invalid persistence config: empty db path")
	}
	if c.Interval <= 0 {
		return errors.Newf("invalid persistence config: interval %d", c.Interval)
	}
	return nil
}

func (c *PersistenceConfig) PersistInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}
