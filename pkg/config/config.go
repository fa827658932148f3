package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("configuración inválida")

// Config configuración del servidor, desde config/config.yaml y variables de entorno
type Config struct {
	Env    string `mapstructure:"env"` // local, production...
	HTTP   HTTP   `mapstructure:"http"`
	Redis  Redis  `mapstructure:"redis"`
	SQLite SQLite `mapstructure:"sqlite"`
	Game   Game   `mapstructure:"game"`
}

// HTTP servidor fasthttp
type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	StaticDir       string        `mapstructure:"static_dir"` // donde vive index.html
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Redis sets de preguntas y snapshots de sesión
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLite resultados de partidas
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Game parámetros del juego
type Game struct {
	QuestionsFile   string        `mapstructure:"questions_file"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	RevealDelay     time.Duration `mapstructure:"reveal_delay"`
	TransitionDelay time.Duration `mapstructure:"transition_delay"`
}

// Load lee .env (si existe), ./config/config.yaml (si existe) y el entorno
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error cargando .env: %w", err)
	}
	return LoadFrom("./config")
}

// LoadFrom igual que Load pero buscando config.yaml en dir, sin leer .env
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("env", "local")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.static_dir", ".")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sqlite.path", "data/results.db")
	v.SetDefault("game.questions_file", "answers.json")
	v.SetDefault("game.session_ttl", "24h")
	v.SetDefault("game.reveal_delay", "1500ms")
	v.SetDefault("game.transition_delay", "8s")

	// redis.addr → REDIS_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.HTTP.Addr) == "":
		return fmt.Errorf("%w: http.addr vacío", ErrInvalidConfig)
	case strings.TrimSpace(c.Redis.Addr) == "":
		return fmt.Errorf("%w: redis.addr vacío", ErrInvalidConfig)
	case strings.TrimSpace(c.SQLite.Path) == "":
		return fmt.Errorf("%w: sqlite.path vacío", ErrInvalidConfig)
	case c.Game.SessionTTL <= 0:
		return fmt.Errorf("%w: game.session_ttl debe ser positivo", ErrInvalidConfig)
	case c.Game.RevealDelay < 0 || c.Game.TransitionDelay < 0:
		return fmt.Errorf("%w: las pausas no pueden ser negativas", ErrInvalidConfig)
	}
	return nil
}

// IsProduction indica si se corre en producción
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
