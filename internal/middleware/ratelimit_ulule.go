package middleware

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/request"
)

const defaultRatelimitRate = "5-S"

// RateLimitFromDB builds a per-client-IP limiter over Redis. The rate
// comes from the stored settings row; when none exists yet, fallback
// is persisted so the configure CLI has something to show and edit.
func RateLimitFromDB(redisClient *redis.Client, repo *database.RatelimitConfigRepository, fallback string) (func(http.Handler) http.Handler, error) {
	if fallback == "" {
		fallback = defaultRatelimitRate
	}

	ctx := context.Background()
	stored, err := repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	rateStr := fallback
	switch {
	case stored != nil && stored.Rate != "":
		rateStr = stored.Rate
	default:
		if err := repo.Set(ctx, &models.RatelimitConfig{Rate: fallback}); err != nil {
			return nil, err
		}
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, err
	}

	mw := stdlibmw.NewMiddleware(
		limiter.New(store, rate),
		stdlibmw.WithKeyGetter(func(r *http.Request) string {
			return request.ClientIP(r)
		}),
	)
	return mw.Handler, nil
}
