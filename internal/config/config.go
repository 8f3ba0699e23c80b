package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pulsenote/billing/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Mongo      MongoConfig      `validate:"required"`
	Razorpay   RazorpayConfig   `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type MongoConfig struct {
	URI            string        `validate:"required"`
	Database       string        `validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RazorpayConfig struct {
	KeyID         string `mapstructure:"key_id" validate:"required"`
	KeySecret     string `mapstructure:"key_secret" validate:"required"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// CallTimeout bounds every gateway call; a timeout is treated as a
	// failure of that step, never as silent success.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pulsenote")

	v.SetEnvPrefix("PULSENOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("razorpay.call_timeout", 15*time.Second)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "pulsenote_billing",
			ConnectTimeout: 10 * time.Second,
		},
		Razorpay: RazorpayConfig{
			CallTimeout: 15 * time.Second,
		},
	}
}
