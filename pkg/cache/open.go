package cache

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the backend selected by the configuration: a [RedisCache] for
// redis:// and rediss:// URLs, otherwise a [FileCache] in dir. When disabled
// is true a [NullCache] is returned regardless.
func Open(ctx context.Context, disabled bool, redisURL, dir string) (Cache, error) {
	switch {
	case disabled:
		return NewNullCache(), nil
	case redisURL == "":
		return NewFileCache(dir)
	case strings.HasPrefix(redisURL, "redis://"), strings.HasPrefix(redisURL, "rediss://"):
		return NewRedisCache(ctx, redisURL, "chaski:")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, redisURL)
	}
}
