package settings

type Config struct {
	Store   Store   `mapstructure:"store" toml:"store"`
	Cache   Cache   `mapstructure:"cache" toml:"cache"`
	Metrics Metrics `mapstructure:"metrics" toml:"metrics"`
	Logger  Logger  `mapstructure:"logger" toml:"logger"`
	Version Version `mapstructure:"version" toml:"version"`
	Ingress Ingress `mapstructure:"ingress" toml:"ingress"`
}

// Store is the configuration for the store connection
type Store struct {
	Name        string `mapstructure:"name" toml:"name" validate:"required,excludesall=/\\"`
	Folder      string `mapstructure:"folder" toml:"folder" validate:"required"`
	MailboxSize int    `mapstructure:"mailbox_size" toml:"mailbox_size" validate:"gte=1,lte=65536"`
	SyncWrites  bool   `mapstructure:"sync_writes" toml:"sync_writes"`
}

// Cache is the configuration for the shared frame cache
type Cache struct {
	Enabled     bool  `mapstructure:"enabled" toml:"enabled"`
	MaxFrames   int64 `mapstructure:"max_frames" toml:"max_frames" validate:"gte=0"`
	NumCounters int64 `mapstructure:"num_counters" toml:"num_counters" validate:"gte=0"`
}

// Metrics is the configuration for prometheus metrics
type Metrics struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level" toml:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	FileLogName string `mapstructure:"file_log_name" toml:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAge      int    `mapstructure:"max_age" toml:"max_age" validate:"gte=0"`
	MaxSize     int    `mapstructure:"max_size" toml:"max_size" validate:"gte=0"`
	Compress    bool   `mapstructure:"compress" toml:"compress"`
}

// Version is the settings file format version
type Version struct {
	Major int `mapstructure:"major" toml:"major"`
	Minor int `mapstructure:"minor" toml:"minor"`
}

// Ingress lists the user codes allowed to write
type Ingress struct {
	UserCodes []string `mapstructure:"user_codes" toml:"user_codes"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Store: Store{
			Name:        "recurve",
			Folder:      ".",
			MailboxSize: 64,
		},
		Cache: Cache{
			Enabled:   true,
			MaxFrames: 1 << 16,
		},
		Logger: Logger{
			LogLevel:   "info",
			MaxBackups: 3,
			MaxAge:     28,
			MaxSize:    100,
		},
		Version: Version{Major: 0, Minor: 1},
		Ingress: Ingress{UserCodes: []string{}},
	}
}
