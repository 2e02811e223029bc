package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"time"
)

// Connect устанавливает соединение с postgres с ретраями и применяет миграции.
// Ретраи нужны на случай, когда контейнер БД поднимается дольше приложения.
func Connect(ctx context.Context, migrationsDir, dsn string, l *logrus.Logger) (*pgxpool.Pool, error) {
	var attempts uint
	var maxAttempts uint = 30
	var retryInterval = 3 * time.Second

	var pool *pgxpool.Pool

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err() //nolint:wrapcheck
		default:
		}

		conn, connErr := newPostgresConnection(ctx, dsn)
		if connErr != nil {
			attempts++
			if attempts > maxAttempts {
				return nil, fmt.Errorf("init postgres connection after %d attempts: %w", maxAttempts, connErr)
			}
			l.WithError(connErr).
				WithField("CurrentAttempt", fmt.Sprintf("#%d / %d", attempts, maxAttempts)).
				Warnf("init postgres connection error, retrying in %.f seconds", retryInterval.Seconds())
			time.Sleep(retryInterval)
			continue
		}
		pool = conn
		break
	}

	if err := postgresMigrate(migrationsDir, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newPostgresConnection(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, confErr := pgxpool.ParseConfig(dsn)
	if confErr != nil {
		return nil, fmt.Errorf("parse postgres config: %s", confErr.Error())
	}
	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return nil, fmt.Errorf("failed to create pool: %s", poolErr.Error())
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %s", pingErr.Error())
	}

	return pool, nil
}

func postgresMigrate(dir string, dsn string) error {
	m, mErr := migrate.New("file://"+dir, dsn)
	if mErr != nil {
		return fmt.Errorf("failed to create migrate instance: %w", mErr)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
