package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds stage B's runtime settings. Every knob has a default, so
// the binary starts with zero required flags.
type Config struct {
	UpstreamAddr string
	Secret       string
	RingCapacity int
	DBPath       string
	WSAddr       string
	WebRoot      string
	Production   bool
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("gateway: no .env file found, using environment variables")
	}

	viper.SetDefault("GATEWAY_UPSTREAM_ADDR", "127.0.0.1:9001")
	viper.SetDefault("GATEWAY_SECRET", "exchange-a-secret")
	viper.SetDefault("GATEWAY_RING_CAPACITY", 65536)
	viper.SetDefault("GATEWAY_DB_PATH", "./gateway.db")
	viper.SetDefault("GATEWAY_WS_ADDR", "0.0.0.0:9002")
	viper.SetDefault("GATEWAY_WEB_ROOT", "web/index.html")
	viper.SetDefault("APP_ENV", "development")
	viper.AutomaticEnv()

	return Config{
		UpstreamAddr: viper.GetString("GATEWAY_UPSTREAM_ADDR"),
		Secret:       viper.GetString("GATEWAY_SECRET"),
		RingCapacity: viper.GetInt("GATEWAY_RING_CAPACITY"),
		DBPath:       viper.GetString("GATEWAY_DB_PATH"),
		WSAddr:       viper.GetString("GATEWAY_WS_ADDR"),
		WebRoot:      viper.GetString("GATEWAY_WEB_ROOT"),
		Production:   viper.GetString("APP_ENV") == "production",
	}
}
