package config

import (
	"fmt"
	"net/url"

	pkgconfig "github.com/warungku/poscore/pkg/config"
)

// Config holds all configuration for the POS core service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"POS_HTTP_PORT" envDefault:"8010"`

	// Shop identity printed on every receipt
	ShopName    string `env:"SHOP_NAME" envDefault:"Warung Kopi Sederhana"`
	ShopAddress string `env:"SHOP_ADDRESS" envDefault:"Jl. Melati No. 12, Yogyakarta"`
	ShopPhone   string `env:"SHOP_PHONE" envDefault:"0812-3456-7890"`

	// Receipt rendering
	PaperWidth     int `env:"PAPER_WIDTH" envDefault:"32"`
	ReceiptCopies  int `env:"RECEIPT_COPIES" envDefault:"1"`
	DefaultTaxRate int `env:"DEFAULT_TAX_PERCENT" envDefault:"11"`

	// Printer transport. "wireless" scans rfcomm device nodes, "network"
	// dials a raw TCP printer port.
	PrinterBackend    string `env:"PRINTER_BACKEND" envDefault:"wireless"`
	PrinterAddress    string `env:"PRINTER_ADDRESS" envDefault:"192.168.1.50:9100"`
	RfcommGlob        string `env:"RFCOMM_GLOB" envDefault:"/dev/rfcomm*"`
	ChunkSize         int    `env:"PRINTER_CHUNK_BYTES" envDefault:"20"`
	InterChunkDelayMs int    `env:"PRINTER_INTER_CHUNK_DELAY_MS" envDefault:"20"`
	ConnectTimeoutSec int    `env:"PRINTER_CONNECT_TIMEOUT_SECONDS" envDefault:"15"`
	WriteTimeoutSec   int    `env:"PRINTER_WRITE_TIMEOUT_SECONDS" envDefault:"2"`
	SettleDelayMs     int    `env:"PRINTER_SETTLE_DELAY_MS" envDefault:"400"`

	// Receipt journal (local pebble store for reprints)
	JournalDir           string `env:"JOURNAL_DIR" envDefault:"./data/journal"`
	JournalRetentionDays int    `env:"JOURNAL_RETENTION_DAYS" envDefault:"90"`

	// Redis (held orders)
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	HoldTTLHours int    `env:"HOLD_TTL_HOURS" envDefault:"12"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Order service (remote persistence of completed sales)
	OrderServiceURL     string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8003"`
	OrderTimeoutSeconds int    `env:"ORDER_TIMEOUT_SECONDS" envDefault:"5"`

	// Circuit breaker settings for the order service client
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load pos config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PaperWidth != 32 && c.PaperWidth != 40 {
		return fmt.Errorf("PAPER_WIDTH must be 32 or 40, got %d", c.PaperWidth)
	}
	if c.PrinterBackend != "wireless" && c.PrinterBackend != "network" {
		return fmt.Errorf("PRINTER_BACKEND must be wireless or network, got %q", c.PrinterBackend)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("PRINTER_CHUNK_BYTES must be positive, got %d", c.ChunkSize)
	}
	if c.ReceiptCopies < 1 || c.ReceiptCopies > 5 {
		return fmt.Errorf("RECEIPT_COPIES must be between 1 and 5, got %d", c.ReceiptCopies)
	}
	if c.DefaultTaxRate < 0 || c.DefaultTaxRate > 100 {
		return fmt.Errorf("DEFAULT_TAX_PERCENT must be between 0 and 100, got %d", c.DefaultTaxRate)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OrderServiceURL == "" {
		return fmt.Errorf("ORDER_SERVICE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.OrderServiceURL); err != nil {
		return fmt.Errorf("invalid ORDER_SERVICE_URL %q: %w", c.OrderServiceURL, err)
	}
	return nil
}
