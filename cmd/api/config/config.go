package config

import "time"

type Config struct {
	DefaultModel      string
	GenerationTimeout time.Duration
	PingInterval      time.Duration
}

func NewConfig() *Config {
	return &Config{
		DefaultModel:      "gemini-1.5-flash",
		GenerationTimeout: 60 * time.Second,
		PingInterval:      30 * time.Second,
	}
}
