package common

import (
	"os"

	"github.com/pingcap/errors"
	"gopkg.in/yaml.v3"
)

const (
	// longest name of a space, index, sequence, user or function
	BoxNameMax = 65000
	// returned by lookups when an object does not exist
	BoxIDNil = ^uint32(0)
	// system spaces live in [BoxSystemIDMin, BoxSystemIDMax]
	BoxSystemIDMin = 256
	BoxSystemIDMax = 511
	// ids of user spaces start right after the system range
	BoxSpaceIDMin = BoxSystemIDMax + 1
	BoxIndexMax   = 128
	// reserved users and roles
	GuestID  = 0
	AdminID  = 1
	PublicID = 2
	SuperID  = 31
	// default limit of the prepared statement cache in bytes
	DefaultStmtCacheSize = 5 * 1024 * 1024
	// limit of ? markers in one statement
	SQLBindParameterMax = 65000
)

type WALMode string

const (
	WALMemory WALMode = "memory"
	WALFile   WALMode = "file"
)

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
}

type WALConfig struct {
	Mode WALMode `yaml:"mode"`
	Dir  string  `yaml:"dir"`
}

type SQLConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type DebugConfig struct {
	DeadlockDetection bool `yaml:"deadlock_detection"`
}

// Config is the engine instance configuration. Zero values are replaced
// by DefaultConfig values in Normalize.
type Config struct {
	Name  string      `yaml:"name"`
	Log   LogConfig   `yaml:"log"`
	WAL   WALConfig   `yaml:"wal"`
	SQL   SQLConfig   `yaml:"sql"`
	Debug DebugConfig `yaml:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 3,
		},
		WAL: WALConfig{Mode: WALMemory, Dir: "."},
		SQL: SQLConfig{CacheSize: DefaultStmtCacheSize},
	}
}

func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = def.Log.MaxBackups
	}
	if c.WAL.Mode == "" {
		c.WAL.Mode = def.WAL.Mode
	}
	if c.WAL.Dir == "" {
		c.WAL.Dir = def.WAL.Dir
	}
	if c.SQL.CacheSize == 0 {
		c.SQL.CacheSize = def.SQL.CacheSize
	}
}

func (c *Config) Validate() error {
	switch c.WAL.Mode {
	case WALMemory, WALFile:
	default:
		return errors.Errorf("unknown wal mode %q", c.WAL.Mode)
	}
	if c.SQL.CacheSize < 0 {
		return errors.Errorf("sql.cache_size must not be negative, got %d", c.SQL.CacheSize)
	}
	return nil
}

// LoadConfig reads a YAML file. Keys missing in the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "read config %s", path)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotate(err, "parse config")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
