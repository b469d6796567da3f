package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string `envconfig:"PREFS_SERVER_HOST" default:"localhost"`
	HTTPPort    string `envconfig:"PREFS_SERVER_HTTP_PORT" default:"8080"`
	GrpcPort    string `envconfig:"PREFS_SERVER_GRPC_PORT" default:"50051"`
	ReadTimeout int    `envconfig:"PREFS_SERVER_TIMEOUT" default:"10"`
}

type RabbitMQ struct {
	Host string `envconfig:"RABBITMQ_HOST" required:"true"`
	Port string `envconfig:"RABBITMQ_PORT" required:"true"`
	User string `envconfig:"RABBITMQ_USER" required:"true"`
	Pass string `envconfig:"RABBITMQ_PASSWORD" required:"true"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type Db struct {
	Driver  string `envconfig:"DB_DRIVER" default:"sqlite"`
	Dialect string `envconfig:"DB_DIALECT" default:"sqlite3"`
	Source  string `envconfig:"DB_NAME" default:"preferences.db"`
}

type Notifier struct {
	Spec             string `envconfig:"NOTIFIER_SPEC" default:"0 0 * * * *"`
	HousekeepingSpec string `envconfig:"NOTIFIER_HOUSEKEEPING_SPEC" default:"0 */10 * * * *"`
	WeeklyDay        string `envconfig:"WEEKLY_DIGEST_DAY" default:"monday"`
}

type Features struct {
	ReminderCouplingRollout int    `envconfig:"FEATURE_REMINDER_COUPLING_V1_PERCENT" default:"0"`
	ReminderCouplingForce   string `envconfig:"FEATURE_REMINDER_COUPLING_FORCE"`
}

type Breaker struct {
	MaxFailures uint32        `envconfig:"ANALYTICS_BREAKER_MAX_FAILURES" default:"5"`
	Interval    time.Duration `envconfig:"ANALYTICS_BREAKER_INTERVAL" default:"30s"`
	Timeout     time.Duration `envconfig:"ANALYTICS_BREAKER_TIMEOUT" default:"15s"`
}

type Config struct {
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	LogsPath      string        `envconfig:"LOGS_PATH" default:"logs/preferences.log"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"debug"`
	AccessLogPath string        `envconfig:"ACCESS_LOG_PATH" default:"logs/access.log"`

	RabbitMQ RabbitMQ
	Redis    Redis
	Server   Server
	DB       Db
	Notifier Notifier
	Features Features
	Breaker  Breaker
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Notifier.Weekday(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.HTTPPort
}

func (c *Config) GrpcAddress() string {
	return c.Server.Host + ":" + c.Server.GrpcPort
}

func (r *RabbitMQ) Address() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Pass, r.Host, r.Port)
}

// Weekday parses WeeklyDay, e.g. "monday" or "Mon".
func (n *Notifier) Weekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(n.WeeklyDay))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("invalid weekly digest day %q", n.WeeklyDay)
}
