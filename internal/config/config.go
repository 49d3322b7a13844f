package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis     `yaml:"redis"`
	Game       Game      `yaml:"game"`
	Bot        Bot       `yaml:"bot"`
	WebSocket  WebSocket `yaml:"websocket"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	BoardSize         int           `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"3"`
	CountdownTicks    int           `yaml:"countdown-ticks" env:"GAME_COUNTDOWN_TICKS" env-default:"3"`
	CountdownInterval time.Duration `yaml:"countdown-interval" env:"GAME_COUNTDOWN_INTERVAL" env-default:"1s"`
	HintLimit         int           `yaml:"hint-limit" env:"GAME_HINT_LIMIT" env-default:"1"`
	MaxBoardSize      int           `yaml:"max-board-size" env:"GAME_MAX_BOARD_SIZE" env-default:"9"`
}

type Bot struct {
	NormalDepth int `yaml:"normal-depth" env:"BOT_NORMAL_DEPTH" env-default:"6"`
	HardDepth   int `yaml:"hard-depth" env:"BOT_HARD_DEPTH" env-default:"8"`
}

type WebSocket struct {
	SendBuffer        int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
	MessagesPerSecond float64       `yaml:"messages-per-second" env:"WS_MESSAGES_PER_SECOND" env-default:"10"`
	Burst             int           `yaml:"burst" env:"WS_BURST" env-default:"20"`
	PingInterval      time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"30s"`
	MaxMessageBytes   int64         `yaml:"max-message-bytes" env:"WS_MAX_MESSAGE_BYTES" env-default:"4096"`
}

// Load - reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch {
	case that.Game.BoardSize < 3:
		return fmt.Errorf("%w: board-size must be at least 3, got %d", ErrInvalidConfig, that.Game.BoardSize)
	case that.Game.BoardSize > that.Game.MaxBoardSize:
		return fmt.Errorf("%w: board-size %d exceeds max-board-size %d", ErrInvalidConfig, that.Game.BoardSize, that.Game.MaxBoardSize)
	case that.Game.CountdownTicks < 0:
		return fmt.Errorf("%w: countdown-ticks must not be negative", ErrInvalidConfig)
	case that.Game.CountdownTicks > 0 && that.Game.CountdownInterval <= 0:
		return fmt.Errorf("%w: countdown-interval must be positive", ErrInvalidConfig)
	case that.Game.HintLimit < 0:
		return fmt.Errorf("%w: hint-limit must not be negative", ErrInvalidConfig)
	case that.Bot.NormalDepth < 1 || that.Bot.HardDepth < 1:
		return fmt.Errorf("%w: bot depths must be at least 1", ErrInvalidConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
