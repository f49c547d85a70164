package orderhub

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	Logger zerolog.Logger
	Redis  *redis.Client
)
