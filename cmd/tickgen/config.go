package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds stage A's runtime settings. Every knob has a default, so
// the binary starts with zero required flags.
type Config struct {
	ListenAddr       string
	Secret           string
	SessionWatermark int
	Production       bool
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("tickgen: no .env file found, using environment variables")
	}

	viper.SetDefault("TICKGEN_LISTEN_ADDR", "0.0.0.0:9001")
	viper.SetDefault("TICKGEN_SECRET", "exchange-a-secret")
	viper.SetDefault("TICKGEN_SESSION_WATERMARK", 4096)
	viper.SetDefault("APP_ENV", "development")
	viper.AutomaticEnv()

	return Config{
		ListenAddr:       viper.GetString("TICKGEN_LISTEN_ADDR"),
		Secret:           viper.GetString("TICKGEN_SECRET"),
		SessionWatermark: viper.GetInt("TICKGEN_SESSION_WATERMARK"),
		Production:       viper.GetString("APP_ENV") == "production",
	}
}
