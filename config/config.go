package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type NetConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"rpc_user"`
	Password string `toml:"rpc_password"`
}

func (c *NetConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Path  string `toml:"log_path"`
	File  string `toml:"log_file"`
	Level string `toml:"log_level"`
}

type CheckpointConfig struct {
	Dir  string `toml:"dir"`
	Name string `toml:"name"`
	// Cron spec (with seconds) of the scheduled rotation, empty disables it.
	RotateSpec string `toml:"rotate_spec"`
}

type TrackerConfig struct {
	StartHeight  uint64 `toml:"start_height"`
	Follow       bool   `toml:"follow"`
	PollInterval string `toml:"poll_interval"`
	ReportSpec   string `toml:"report_spec"`
}

func (c *TrackerConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

type ServerConfig struct {
	HttpPort int `toml:"http_port"`
}

type Config struct {
	Net        NetConfig        `toml:"net"`
	Log        LogConfig        `toml:"log"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Server     ServerConfig     `toml:"server"`
}

// Default mirrors the values the checkpoint script used to hard-code.
func Default() *Config {
	return &Config{
		Net: NetConfig{
			Host:     "127.0.0.1",
			Port:     12341,
			User:     "RPCuser",
			Password: "RPCpassword",
		},
		Log: LogConfig{
			Path:  ".",
			File:  "coin-checkpoints.log",
			Level: "info",
		},
		Checkpoint: CheckpointConfig{
			Dir:        ".",
			Name:       "checkpoints",
			RotateSpec: "0 0 0 * * *",
		},
		Tracker: TrackerConfig{
			StartHeight:  1,
			PollInterval: "1s",
			ReportSpec:   "0 */10 * * * *",
		},
	}
}

func LoadConfig() *Config {
	return LoadConfigFrom("./config.toml")
}

func LoadConfigFrom(path string) *Config {
	config := Default()
	data, err := toml.DecodeFile(path, config)
	if err != nil {
		fmt.Println(data, err)
	}
	if config.Tracker.StartHeight == 0 {
		config.Tracker.StartHeight = 1
	}
	return config
}
