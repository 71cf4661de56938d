package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Redis holds the journey store connection configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Tracking holds the tracking engine policy knobs.
	Tracking TrackingConfig `mapstructure:",squash"`
}

// RedisConfig holds connection details for the journey store.
type RedisConfig struct {
	// URL is the Redis connection URL, e.g. redis://localhost:6379/0.
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// ReadCacheTTLSeconds is how long journey read responses may be served from cache.
	ReadCacheTTLSeconds int `mapstructure:"REDIS_READ_CACHE_TTL_S" default:"30"`
}

// TrackingConfig holds the numeric policy knobs for the tracking engine.
// All values are plain numbers; none are secrets.
type TrackingConfig struct {
	// AccuracyCeilingMeters rejects fixes whose reported accuracy is worse than this.
	AccuracyCeilingMeters float64 `mapstructure:"TRACK_ACCURACY_CEILING_M" default:"50"`
	// MaxSpeedMPS rejects fixes implying a speed above this value (GPS teleports).
	MaxSpeedMPS float64 `mapstructure:"TRACK_MAX_SPEED_MPS" default:"50"`
	// MinMovementMeters suppresses stationary jitter below this displacement.
	MinMovementMeters float64 `mapstructure:"TRACK_MIN_MOVEMENT_M" default:"2"`

	// SampleIntervalMillis is the desired position reporting interval.
	SampleIntervalMillis int `mapstructure:"TRACK_SAMPLE_INTERVAL_MS" default:"5000"`
	// FastestIntervalMillis is the fastest reporting interval the watcher accepts.
	FastestIntervalMillis int `mapstructure:"TRACK_FASTEST_INTERVAL_MS" default:"2000"`
	// DistanceFilterMeters is the watcher-side minimum displacement between reports.
	DistanceFilterMeters float64 `mapstructure:"TRACK_DISTANCE_FILTER_M" default:"10"`
	// WatchTimeoutMillis bounds a single position acquisition before the watcher
	// retries at relaxed accuracy.
	WatchTimeoutMillis int `mapstructure:"TRACK_WATCH_TIMEOUT_MS" default:"15000"`

	// FlushIntervalSeconds is the journey store sync cadence.
	FlushIntervalSeconds int `mapstructure:"TRACK_FLUSH_INTERVAL_S" default:"60"`
	// DayCheckIntervalSeconds is the day-boundary monitor cadence.
	DayCheckIntervalSeconds int `mapstructure:"TRACK_DAY_CHECK_INTERVAL_S" default:"60"`
}

// FlushInterval returns the sync cadence as a duration.
func (t TrackingConfig) FlushInterval() time.Duration {
	return time.Duration(t.FlushIntervalSeconds) * time.Second
}

// DayCheckInterval returns the day-boundary monitor cadence as a duration.
func (t TrackingConfig) DayCheckInterval() time.Duration {
	return time.Duration(t.DayCheckIntervalSeconds) * time.Second
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
