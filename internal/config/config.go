package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sales-leaderboard/internal/logging"
)

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config materialises application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     logging.Config    `mapstructure:"logging"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Refresh     RefreshConfig     `mapstructure:"refresh"`
	Alerting    AlertingConfig    `mapstructure:"alerting"`
	Audio       AudioConfig       `mapstructure:"audio"`
	Server      ServerConfig      `mapstructure:"server"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Export      ExportConfig      `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// RealtimeConfig covers the sale event change stream.
type RealtimeConfig struct {
	Channel      string        `mapstructure:"channel"`
	ReconnectMin time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
}

// RefreshConfig governs how often ranking data is reloaded.
type RefreshConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
	Debounce        time.Duration `mapstructure:"debounce"`
}

// AlertingConfig defines how sale alerts are sequenced and presented.
type AlertingConfig struct {
	DisplayDuration          time.Duration  `mapstructure:"display_duration"`
	ViewCompletion           bool           `mapstructure:"view_completion"`
	QueueWarnDepth           int            `mapstructure:"queue_warn_depth"`
	LookupTimeout            time.Duration  `mapstructure:"lookup_timeout"`
	SyntheticPrefix          string         `mapstructure:"synthetic_prefix"`
	PlaceholderName          string         `mapstructure:"placeholder_name"`
	SyntheticPlaceholderName string         `mapstructure:"synthetic_placeholder_name"`
	Telegram                 TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the optional chat announcement channel.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AudioConfig covers clip locations, bell timing and the tier table.
type AudioConfig struct {
	AssetsDir         string            `mapstructure:"assets_dir"`
	PublicPrefix      string            `mapstructure:"public_prefix"`
	BellPath          string            `mapstructure:"bell_path"`
	MetadataTimeout   time.Duration     `mapstructure:"metadata_timeout"`
	BellFallbackDelay time.Duration     `mapstructure:"bell_fallback_delay"`
	BellLead          time.Duration     `mapstructure:"bell_lead"`
	BellLoop          bool              `mapstructure:"bell_loop"`
	Rules             []AudioRuleConfig `mapstructure:"rules"`
}

// AudioRuleConfig is one tier of the entry value partition. An empty Max is unbounded.
type AudioRuleConfig struct {
	Min   string `mapstructure:"min"`
	Max   string `mapstructure:"max"`
	Voice string `mapstructure:"voice"`
	Bell  bool   `mapstructure:"bell"`
}

// ServerConfig controls the HTTP/WebSocket listener for TV screens.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

// LeaderboardConfig sets ranking presentation rules.
type LeaderboardConfig struct {
	Timezone    string            `mapstructure:"timezone"`
	KnownTeams  []string          `mapstructure:"known_teams"`
	TeamAliases map[string]string `mapstructure:"team_aliases"`
	TopMembers  int               `mapstructure:"top_members"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	TopSellers int `mapstructure:"top_sellers"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADERBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sales-leaderboard")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.query_timeout", "5s")

	v.SetDefault("realtime.channel", "sales_events")
	v.SetDefault("realtime.reconnect_min", "1s")
	v.SetDefault("realtime.reconnect_max", "30s")

	v.SetDefault("refresh.interval", "1m")
	v.SetDefault("refresh.align_to_interval", false)
	v.SetDefault("refresh.debounce", "500ms")

	v.SetDefault("alerting.display_duration", "15s")
	v.SetDefault("alerting.view_completion", false)
	v.SetDefault("alerting.queue_warn_depth", 20)
	v.SetDefault("alerting.lookup_timeout", "3s")
	v.SetDefault("alerting.synthetic_prefix", "test-")
	v.SetDefault("alerting.placeholder_name", "Vendedor")
	v.SetDefault("alerting.synthetic_placeholder_name", "Vendedor Teste")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("audio.assets_dir", "public")
	v.SetDefault("audio.public_prefix", "/sounds")
	v.SetDefault("audio.bell_path", "Sino.mp3")
	v.SetDefault("audio.metadata_timeout", "2s")
	v.SetDefault("audio.bell_fallback_delay", "3s")
	v.SetDefault("audio.bell_lead", "1s")
	v.SetDefault("audio.bell_loop", false)
	v.SetDefault("audio.rules", []map[string]any{
		{"min": "0", "max": "999.99", "voice": "ElevenLabs_Vagner.mp3", "bell": false},
		{"min": "1000", "max": "1999.99", "voice": "ElevenLabs_Vagner_1k.mp3", "bell": true},
		{"min": "2000", "max": "2499.99", "voice": "ElevenLabs_Vagner_2k.mp3", "bell": true},
		{"min": "2500", "max": "", "voice": "ElevenLabs_Vagner_5k.mp3", "bell": true},
	})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("leaderboard.timezone", "America/New_York")
	v.SetDefault("leaderboard.known_teams", []string{
		"Titans", "Phoenix", "Premium", "Diamond", "Legacy Global",
		"Imperium", "Invictus", "Elite", "Falcons", "Blessed",
	})
	v.SetDefault("leaderboard.team_aliases", map[string]string{
		"titãs":  "Titans",
		"canadá": "Diamond",
		"canada": "Diamond",
	})
	v.SetDefault("leaderboard.top_members", 3)

	v.SetDefault("export.top_sellers", 20)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Alerting.DisplayDuration <= 0 {
		return fmt.Errorf("alerting.display_duration must be greater than zero")
	}
	if c.Alerting.QueueWarnDepth <= 0 {
		return fmt.Errorf("alerting.queue_warn_depth must be greater than zero")
	}
	if strings.TrimSpace(c.Alerting.PlaceholderName) == "" {
		return fmt.Errorf("alerting.placeholder_name must not be empty")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Refresh.Debounce < 0 {
		return fmt.Errorf("refresh.debounce cannot be negative")
	}
	if !channelPattern.MatchString(c.Realtime.Channel) {
		return fmt.Errorf("realtime.channel %q is not a valid channel identifier", c.Realtime.Channel)
	}
	if c.Realtime.ReconnectMin <= 0 || c.Realtime.ReconnectMax < c.Realtime.ReconnectMin {
		return fmt.Errorf("realtime.reconnect_min/max must be positive and ordered")
	}
	if c.Audio.BellFallbackDelay <= 0 {
		return fmt.Errorf("audio.bell_fallback_delay must be greater than zero")
	}
	if c.Audio.BellLead < 0 {
		return fmt.Errorf("audio.bell_lead cannot be negative")
	}
	if len(c.Audio.Rules) == 0 {
		return fmt.Errorf("audio.rules must contain at least one tier")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be configured")
	}
	if _, err := time.LoadLocation(c.Leaderboard.Timezone); err != nil {
		return fmt.Errorf("leaderboard.timezone: %w", err)
	}
	if c.Export.TopSellers <= 0 {
		return fmt.Errorf("export.top_sellers must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be configured")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be configured")
		}
	}
	return nil
}

// Location resolves the leaderboard timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Leaderboard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ResolveTopSellers returns either the CLI override or config default.
func (c *Config) ResolveTopSellers(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.TopSellers
}
