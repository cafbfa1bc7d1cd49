package config

import (
	"os"
	"time"

	"github.com/pingcap/errors"
)

// Config holds the store-core options.
type Config struct {
	LogLevel          string `toml:"log-level"`
	Shards            uint32 `toml:"shards"`              // Number of shard threads.
	JournalBufferSize int    `toml:"journal-buffer-size"` // Recent journal items kept for catch-up reads.
	LockWaitMs        int64  `toml:"lock-wait-ms"`        // How long a transaction waits for a latch before it retries.
}

var DefaultConf = Config{
	LogLevel:          getLogLevel(),
	Shards:            4,
	JournalBufferSize: 1024,
	LockWaitMs:        100,
}

func (c *Config) Validate() error {
	if c.Shards == 0 {
		return errors.New("shards must be greater than 0")
	}
	if c.JournalBufferSize <= 0 {
		return errors.New("journal-buffer-size must be greater than 0")
	}
	if c.LockWaitMs <= 0 {
		return errors.New("lock-wait-ms must be greater than 0")
	}
	return nil
}

// LockWaitDuration returns the latch wait budget as a duration.
func (c *Config) LockWaitDuration() time.Duration {
	return time.Duration(c.LockWaitMs) * time.Millisecond
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}
