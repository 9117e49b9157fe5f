package app

import (
	"github.com/nordiska/pricewatch-backend/internal/platform/envutil"
)

type Config struct {
	JWTSecretKey string
	HTTPAddr     string

	// BatchLimit caps how many staged rows one process call drains.
	BatchLimit int

	// RedisEnabled switches the event bus on; without it the pipeline
	// runs with a no-op notifier.
	RedisEnabled bool
}

func LoadConfig() Config {
	return Config{
		JWTSecretKey: envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		HTTPAddr:     envutil.Str("HTTP_ADDR", ":8080"),
		BatchLimit:   envutil.Int("PIPELINE_BATCH_LIMIT", 500),
		RedisEnabled: envutil.Bool("REDIS_ENABLED", false),
	}
}
