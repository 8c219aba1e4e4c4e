package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/nitish-vaani/codeyoung/pkg/config"
	"github.com/nitish-vaani/codeyoung/pkg/log"
)

type Config struct {
	Backend   BackendConfig
	Transport TransportConfig
	WebSocket WebSocketConfig
	Agent     AgentConfig
	Log       log.Config
}

// BackendConfig holds the two negotiation endpoints.
type BackendConfig struct {
	TriggerChatURL string        `mapstructure:"trigger_chat_url"`
	ChatTokenURL   string        `mapstructure:"chat_token_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// TransportConfig holds the realtime room endpoint. One fixed URL is used
// for every session.
type TransportConfig struct {
	URL                  string        `mapstructure:"url"`
	ReconnectMaxAttempts int           `mapstructure:"reconnect_max_attempts"`
	ReconnectBaseDelay   time.Duration `mapstructure:"reconnect_base_delay"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type AgentConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("backend.trigger_chat_url", "http://localhost:8000/api/trigger-chat/")
	v.SetDefault("backend.chat_token_url", "http://localhost:8000/api/get-chat-token/")
	v.SetDefault("backend.request_timeout", "15s")
	v.SetDefault("transport.url", "wss://chat.codeyoung.internal/room")
	v.SetDefault("transport.reconnect_max_attempts", 5)
	v.SetDefault("transport.reconnect_base_delay", "1s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("agent.id", "3")
	v.SetDefault("agent.name", "Codeyoung Agent")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "agentchat")

	// Override from environment
	v.BindEnv("backend.trigger_chat_url", "TRIGGER_CHAT_URL")
	v.BindEnv("backend.chat_token_url", "CHAT_TOKEN_URL")
	v.BindEnv("transport.url", "TRANSPORT_URL")
	v.BindEnv("agent.id", "AGENT_ID")
	v.BindEnv("agent.name", "AGENT_NAME")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Backend.RequestTimeout = parseDuration(v, "backend.request_timeout", 15*time.Second)
	cfg.Transport.ReconnectBaseDelay = parseDuration(v, "transport.reconnect_base_delay", time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
