// Package config loads the ledger server configuration. Sources are applied
// in order, later ones winning: built-in defaults, an optional YAML file,
// a .env file and the process environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultPortFile is where new-node mode records the chosen port.
const DefaultPortFile = "config/port"

// Config is the complete server configuration.
type Config struct {
	Host     string `yaml:"host" env:"LEDGER_HOST"`
	Port     int    `yaml:"port" env:"LEDGER_PORT"`
	NewNode  bool   `yaml:"new_node" env:"LEDGER_NEW_NODE"`
	PortFile string `yaml:"port_file" env:"LEDGER_PORT_FILE"`

	SettlementInterval time.Duration `yaml:"settlement_interval" env:"LEDGER_SETTLEMENT_INTERVAL"`
	QueueCapacity      int           `yaml:"queue_capacity" env:"LEDGER_QUEUE_CAPACITY"`
	WorkerThreads      int           `yaml:"worker_threads" env:"LEDGER_WORKER_THREADS"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"LEDGER_SHUTDOWN_TIMEOUT"`

	SubmitRPS   float64 `yaml:"submit_rps" env:"LEDGER_SUBMIT_RPS"`
	SubmitBurst int     `yaml:"submit_burst" env:"LEDGER_SUBMIT_BURST"`

	MetricsEnabled bool `yaml:"metrics_enabled" env:"LEDGER_METRICS_ENABLED"`

	LogLevel  string `yaml:"log_level" env:"LEDGER_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LEDGER_LOG_FORMAT"`

	// KafkaBrokers is a comma separated list; empty disables event publishing.
	KafkaBrokers string `yaml:"kafka_brokers" env:"LEDGER_KAFKA_BROKERS"`
	KafkaTopic   string `yaml:"kafka_topic" env:"LEDGER_KAFKA_TOPIC"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:               "127.0.0.1",
		Port:               3000,
		PortFile:           DefaultPortFile,
		SettlementInterval: 10 * time.Second,
		QueueCapacity:      100000,
		WorkerThreads:      2,
		ShutdownTimeout:    10 * time.Second,
		SubmitBurst:        20,
		MetricsEnabled:     true,
		LogLevel:           "info",
		LogFormat:          "text",
		KafkaTopic:         "ledger.action_settled",
	}
}

// Load builds a Config from all sources. args excludes the program name.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("ledger-server", pflag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("LEDGER_CONFIG"), "path to a YAML config file")
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	host := fs.String("host", "", "listen host")
	port := fs.IntP("port", "p", 0, "listen port")
	newNode := fs.Bool("new-node", false, "bind a free port and record it in the port file")
	portFile := fs.String("port-file", "", "file receiving the chosen port in new-node mode")
	interval := fs.Duration("interval", 0, "settlement interval")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := cfg.loadYAML(*configPath); err != nil {
			return Config{}, err
		}
	}

	if err := loadEnvFile(*envFile); err != nil {
		return Config{}, err
	}
	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}

	if fs.Changed("host") {
		cfg.Host = *host
	}
	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("new-node") {
		cfg.NewNode = *newNode
	}
	if fs.Changed("port-file") {
		cfg.PortFile = *portFile
	}
	if fs.Changed("interval") {
		cfg.SettlementInterval = *interval
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadEnv overrides fields whose LEDGER_* variable is set. A value that does
// not parse is an error, never a silent fallback.
func (c *Config) loadEnv() error {
	err := envdecode.StrictDecode(c)
	// c is always a valid target, so ErrInvalidTarget only means no variable was set.
	if err != nil && !errors.Is(err, envdecode.ErrInvalidTarget) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !c.NewNode && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.NewNode && strings.TrimSpace(c.PortFile) == "" {
		return errors.New("port file is required in new-node mode")
	}
	if c.SettlementInterval <= 0 {
		return errors.New("settlement interval must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be > 0")
	}
	if c.QueueCapacity < 0 {
		return errors.New("queue capacity must be >= 0")
	}
	if c.WorkerThreads < 0 {
		return errors.New("worker threads must be >= 0")
	}
	if c.SubmitRPS < 0 {
		return errors.New("submit rps must be >= 0")
	}
	if c.SubmitRPS > 0 && c.SubmitBurst <= 0 {
		return errors.New("submit burst must be > 0 when rate limiting is enabled")
	}
	if len(c.Brokers()) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		return errors.New("kafka topic is required when brokers are set")
	}
	return nil
}

// Brokers splits KafkaBrokers into addresses.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ListenAddr is the host:port to bind. New-node mode always binds port 0.
func (c Config) ListenAddr() string {
	port := c.Port
	if c.NewNode {
		port = 0
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
