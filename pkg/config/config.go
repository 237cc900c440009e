package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DB struct {
	Url         string        `envconfig:"URL" default:"sqlite://expense.db"`
	MaxOpen     int           `envconfig:"MAX_OPEN_CONNS" default:"1"`
	MaxIdle     int           `envconfig:"MAX_IDLE_CONNS" default:"1"`
	MaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

// Dialect returns "postgres" for postgres URLs and "sqlite" otherwise.
func (d *DB) Dialect() string {
	if strings.HasPrefix(d.Url, "postgres://") || strings.HasPrefix(d.Url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// DSN strips the sqlite:// scheme; postgres URLs are passed through.
func (d *DB) DSN() string {
	if d.Dialect() == "postgres" {
		return d.Url
	}
	return strings.TrimPrefix(d.Url, "sqlite://")
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" default:"change-me"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"720h"`
}

type Auth struct {
	Jwt         *Jwt   `envconfig:"JWT"`
	SessionFile string `envconfig:"SESSION_FILE" default:".expense_session"`
}

// Redis backs the remote record store, the notification store and the
// redis event bus. An empty URL selects the in-memory implementations.
type Redis struct {
	URL          string        `envconfig:"URL" default:""`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"expense:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
	Stream string `envconfig:"STREAM" default:"expense-events"`
	Group  string `envconfig:"GROUP" default:"expense-notifier"`
}

type Budget struct {
	Monthly        string `envconfig:"MONTHLY" default:"0"`
	CurrencySymbol string `envconfig:"CURRENCY_SYMBOL" default:"৳"`
}

// Limit parses Monthly. Invalid or negative values count as unset.
func (b *Budget) Limit() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(b.Monthly))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[expense]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	Budget    *Budget    `envconfig:"BUDGET"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
}
