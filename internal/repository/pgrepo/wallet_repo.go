package pgrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

type WalletRepository struct {
	conn uow.DBTX
}

func NewWalletRepository(conn uow.DBTX) *WalletRepository {
	return &WalletRepository{conn: conn}
}

const createWalletSQL = `
INSERT INTO wallets (user_id)
VALUES ($1)
RETURNING id, created_at, updated_at, user_id, balance`

// CreateWallet создает кошелек с нулевым балансом для пользователя userID.
// Повторное создание вернет ErrDuplicateKey (уникальный индекс по user_id).
func (r *WalletRepository) CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	row := r.conn.QueryRow(ctx, createWalletSQL, userID)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "creating wallet for user %d", userID)
	}
	return wallet, nil
}

const getWalletByIDSQL = `
SELECT id, created_at, updated_at, user_id, balance
FROM wallets
WHERE id = $1`

func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	row := r.conn.QueryRow(ctx, getWalletByIDSQL, id)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "getting wallet %d", id)
	}
	return wallet, nil
}

const getWalletByUserIDSQL = `
SELECT id, created_at, updated_at, user_id, balance
FROM wallets
WHERE user_id = $1`

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	row := r.conn.QueryRow(ctx, getWalletByUserIDSQL, userID)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "getting wallet of user %d", userID)
	}
	return wallet, nil
}

const lockWalletByIDSQL = `
SELECT id, created_at, updated_at, user_id, balance
FROM wallets
WHERE id = $1
FOR UPDATE`

// LockByID берет эксклюзивную блокировку строки кошелька (SELECT ... FOR UPDATE)
// и возвращает его актуальное состояние. Вызов блокируется до освобождения строки
// конкурирующей транзакцией. Имеет смысл только внутри транзакции: блокировка
// снимается при коммите либо откате.
func (r *WalletRepository) LockByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	row := r.conn.QueryRow(ctx, lockWalletByIDSQL, id)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "locking wallet %d", id)
	}
	return wallet, nil
}

const addToBalanceSQL = `
UPDATE wallets
SET balance = balance + $2, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at, user_id, balance`

// AddToBalance прибавляет delta к балансу кошелька (delta может быть отрицательной).
// Сервисный слой обязан предварительно взять блокировку через LockByID и проверить
// достаточность средств; CHECK balance >= 0 в схеме — лишь страховка.
func (r *WalletRepository) AddToBalance(
	ctx context.Context,
	id int64,
	delta decimal.Decimal,
) (*domain.Wallet, error) {
	row := r.conn.QueryRow(ctx, addToBalanceSQL, id, delta)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "updating balance of wallet %d", id)
	}
	return wallet, nil
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := row.Scan(
		&wallet.ID,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
		&wallet.UserID,
		&wallet.Balance,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &wallet, nil
}
