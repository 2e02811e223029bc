package uow

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks
import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TX доступ к репозиториям внутри открытой транзакции. Все обращения к репозиториям,
// полученным через TX, выполняются в рамках одной атомарной единицы работы.
type TX interface {
	Get(name RepositoryName) (Repository, error)
}

// DBTX общий интерфейс над pgxpool.Pool и pgx.Tx. Репозитории работают через него
// и потому не знают, выполняются они в транзакции или нет.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

type UOW interface {
	Register(name RepositoryName, factory RepositoryFactory) error
	Do(ctx context.Context, fn func(ctx context.Context, tx TX) error) error
	GetRepository(name RepositoryName) (Repository, error)
}
