package initializers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/lib/pq"
)

// DefaultConnectTimeout bounds the startup ping. If Postgres does not answer
// within it, the caller falls back to in-memory storage for the life of the
// process.
const DefaultConnectTimeout = 5 * time.Second

// ConnectDB opens the Postgres connection named by DB_URL and verifies it
// with a bounded ping. Unlike the usual fatal-on-error bootstrap, failure is
// returned so main can make the one-shot fallback decision.
func ConnectDB(ctx context.Context) (*goqu.Database, error) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return goqu.New("postgres", db), nil
}

func connectTimeout() time.Duration {
	if raw := os.Getenv("DB_CONNECT_TIMEOUT"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return DefaultConnectTimeout
}
