// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// DeliveryDirect рассылка отправляется в Telegram прямо из процесса бота.
	DeliveryDirect = "direct"
	// DeliveryQueue рассылка публикуется в RabbitMQ, отправляет отдельный sender.
	DeliveryQueue = "queue"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	BotToken                string `yaml:"bot_token" env:"BOT_TOKEN" validate:"required"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" validate:"required"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	Scheduler               `yaml:"scheduler"`
	Access                  `yaml:"access"`
	Affirmation             `yaml:"affirmation"`
	Payment                 `yaml:"payment"`
}

// HTTPServer структура для настройки сервера health/metrics.
// Пустой AdminSecret отключает /admin.
type HTTPServer struct {
	AddressHTTP   string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP   time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AdminSecret   string        `yaml:"admin_secret" env:"ADMIN_JWT_SECRET" validate:"omitempty,min=32"`
	AdminTokenTTL time.Duration `yaml:"admin_token_ttl" env:"ADMIN_TOKEN_TTL" env-default:"24h" validate:"gt=0"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Addr         string        `yaml:"addressredis" env:"REDIS_ADDRESS" validate:"required"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	UserTTL      time.Duration `yaml:"user_ttl" env-default:"1m"`
	PendingTTL   time.Duration `yaml:"pending_ttl" env-default:"24h"`
}

// RabbitMQ структура для настройки подключения к очереди доставки
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// DefaultHour час рассылки, если он не задан в конфиге.
const DefaultHour = 8

// Scheduler настройки ежедневной рассылки.
// Hour равен nil, если час не задан; Load подставляет DefaultHour.
type Scheduler struct {
	Hour         *int   `yaml:"hour" validate:"omitempty,min=0,max=23"`
	Minute       int    `yaml:"minute" validate:"min=0,max=59"`
	Timezone     string `yaml:"timezone" env:"TIMEZONE" env-default:"UTC"`
	Eligibility  string `yaml:"eligibility" env-default:"access" validate:"oneof=agreed access"`
	DeliveryMode string `yaml:"delivery_mode" env-default:"direct" validate:"oneof=direct queue"`
	Sending      `yaml:",inline"`
}

// Sending ограничение скорости отправки в Telegram
type Sending struct {
	SendRate  float64 `yaml:"send_rate" env-default:"25" validate:"gt=0"`
	SendBurst int     `yaml:"send_burst" env-default:"1" validate:"min=1"`
}

// FireHour возвращает час рассылки.
func (s Scheduler) FireHour() int {
	if s.Hour == nil {
		return DefaultHour
	}
	return *s.Hour
}

// Access настройки политики доступа
type Access struct {
	Policy      string        `yaml:"policy" env-default:"trial_subscription" validate:"oneof=trial_subscription agreement"`
	TrialPeriod time.Duration `yaml:"trial_period" env-default:"768h"`
}

// Affirmation настройки генерации и дедупликации аффирмаций
type Affirmation struct {
	Window      time.Duration `yaml:"window" env-default:"4320h"`
	Attempts    int           `yaml:"attempts" env-default:"15" validate:"min=1"`
	CatalogPath string        `yaml:"catalog_path"`
	LockTTL     time.Duration `yaml:"lock_ttl" env-default:"30s"`
}

// Plan тариф подписки
type Plan struct {
	Label  string `yaml:"label" validate:"required"`
	Amount int    `yaml:"amount" validate:"gt=0"`
	Days   int    `yaml:"days" validate:"gt=0"`
}

// Payment настройки оплаты подписки
type Payment struct {
	Currency      string `yaml:"currency" env-default:"XTR"`
	ProviderToken string `yaml:"provider_token" env:"PAYMENT_PROVIDER_TOKEN"`
	Plans         []Plan `yaml:"plans" validate:"dive"`
}

// DefaultPlans возвращает тарифы: месяц и год в Telegram Stars.
func DefaultPlans() []Plan {
	return []Plan{
		{Label: "1 месяц", Amount: 9900, Days: 30},
		{Label: "1 год", Amount: 89000, Days: 365},
	}
}

// SenderConfig настройки процесса sender. Читается из того же файла, что и Config,
// но не требует хранилища и redis.
type SenderConfig struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	BotToken string `yaml:"bot_token" env:"BOT_TOKEN" validate:"required"`
	RabbitMQ `yaml:"rabbitmq"`
	Sending  `yaml:"scheduler"`
}

func read(configPath string, cfg any) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", configPath)
	}
	return cleanenv.ReadConfig(configPath, cfg)
}

func configPathFromEnv() string {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	return configPath
}

// Load читает конфиг из файла, накладывает переменные окружения и проверяет значения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	var cfg Config
	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Hour == nil {
		hour := DefaultHour
		cfg.Hour = &hour
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	cfg, err := Load(configPathFromEnv())
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// LoadSender читает настройки процесса sender.
func LoadSender(configPath string) (*SenderConfig, error) {
	const op = "config.LoadSender"
	var cfg SenderConfig
	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is required", op)
	}
	return &cfg, nil
}

// MustLoadSender загружает настройки sender по пути из CONFIG_PATH
func MustLoadSender() *SenderConfig {
	cfg, err := LoadSender(configPathFromEnv())
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Validate проверяет теги validate и связи между полями.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.DeliveryMode == DeliveryQueue && c.RabbitMQURL == "" {
		return fmt.Errorf("rabbitmq url is required for delivery mode %q", DeliveryQueue)
	}
	return nil
}

// Location возвращает часовой пояс рассылки. Значение проверено в Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Admin: %t\n"+
			"Scheduler:\n"+
			"  At: %02d:%02d %s\n"+
			"  Eligibility: %s\n"+
			"  DeliveryMode: %s\n"+
			"Access:\n"+
			"  Policy: %s\n"+
			"  TrialPeriod: %s\n"+
			"Affirmation:\n"+
			"  Window: %s\n"+
			"  Attempts: %d\n",
		c.Env,
		c.MigrationsPath,
		c.Addr,
		c.DB,
		c.RabbitMQMaxRetries,
		c.AddressHTTP,
		c.AdminSecret != "",
		c.FireHour(), c.Minute, c.Timezone,
		c.Eligibility,
		c.DeliveryMode,
		c.Policy,
		c.TrialPeriod,
		c.Window,
		c.Attempts,
	)
}
