package config

import (
	"reflect"
	"strings"

	"deal-sync/core/database"
	"deal-sync/core/logger"
	"deal-sync/core/server"
	"deal-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, divided into partial
// configurations per subsystem.
type Config struct {
	// Server holds configuration for the admin HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage used by the run
	// archive (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the platform database connection.
	Database database.Config `mapstructure:"database"`
	// Sync holds the defaults for recurring synchronization jobs.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig carries the defaults applied to scheduled sync jobs. Every
// field maps to an environment variable (SYNC_INTERVAL_SECONDS, ...).
type SyncConfig struct {
	// EntityType names the record set being synced.
	EntityType string `mapstructure:"entity_type" default:"deals"`
	// IntervalSeconds is the recurring job interval.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"300"`
	// Strategy is one of full, incremental, delta, mirror.
	Strategy string `mapstructure:"strategy" default:"incremental"`
	// Resolution is one of source_wins, destination_wins, newest_wins,
	// merge, manual.
	Resolution string `mapstructure:"resolution" default:"newest_wins"`
	// IDField designates the identity field of synced records.
	IDField string `mapstructure:"id_field" default:"id"`
	// TimestampField is consulted by newest_wins and merge resolutions.
	TimestampField string `mapstructure:"timestamp_field" default:"updated_at"`
	// RequiredFields is a comma-separated list of fields a record must
	// carry to be written.
	RequiredFields string `mapstructure:"required_fields" default:"id"`
	// ArchivePrefix is the object-storage prefix for per-run reports.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"sync-runs"`
	// CacheTTLSeconds bounds the staleness of the destination snapshot
	// served by the status endpoint. Zero disables the cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"60"`
	// SourceObject is the storage object scheduled jobs read source
	// records from (the connector drop-box).
	SourceObject string `mapstructure:"source_object" default:"sync-inbox/deals.json"`
}

// RequiredFieldList splits the comma-separated RequiredFields value.
func (c SyncConfig) RequiredFieldList() []string {
	var out []string
	for _, f := range strings.Split(c.RequiredFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// LoadConfig loads configuration from environment variables and an optional
// .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	// Missing .env is fine (production reads the environment directly).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register every key with its default so AutomaticEnv picks it up.
	bindValues(v, Config{}, "")

	// SERVER_PORT -> server.port, SYNC_INTERVAL_SECONDS -> sync.interval_seconds
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// bindValues walks the struct tags and sets default values in Viper from
// the 'default' and 'mapstructure' tags, recursing into nested sections.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
