package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

const createTransactionSQL = `
INSERT INTO transactions (wallet_id, initiator_id, receiver_id, amount, kind, status)
VALUES ($1, $2, $3, $4, $5, 'pending')
RETURNING id, created_at, updated_at, wallet_id, initiator_id, receiver_id, amount, kind, status`

// Create создает запись транзакции в статусе pending. Статус переводится в
// completed отдельным вызовом SetStatus после успешного изменения балансов,
// в рамках той же транзакции БД.
func (r *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	row := r.conn.QueryRow(
		ctx,
		createTransactionSQL,
		args.WalletID,
		args.InitiatorID,
		args.ReceiverID,
		args.Amount,
		args.Kind,
	)
	trans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction for wallet %d", args.Kind, args.WalletID)
	}
	return trans, nil
}

const setTransactionStatusSQL = `
UPDATE transactions
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at, wallet_id, initiator_id, receiver_id, amount, kind, status`

func (r *TransactionRepository) SetStatus(
	ctx context.Context,
	id int64,
	status domain.TransactionStatus,
) (*domain.Transaction, error) {
	row := r.conn.QueryRow(ctx, setTransactionStatusSQL, id, status)
	trans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "setting status %s on transaction %d", status, id)
	}
	return trans, nil
}

const getTransactionsByWalletIDSQL = `
SELECT id, created_at, updated_at, wallet_id, initiator_id, receiver_id, amount, kind, status
FROM transactions
WHERE wallet_id = $1
ORDER BY created_at DESC, id DESC`

// GetByWalletID возвращает транзакции кошелька, новые первыми.
func (r *TransactionRepository) GetByWalletID(
	ctx context.Context,
	walletID int64,
) ([]domain.Transaction, error) {
	rows, err := r.conn.Query(ctx, getTransactionsByWalletIDSQL, walletID)
	if err != nil {
		return nil, convertErr(err, "getting transactions of wallet %d", walletID)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		trans, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transactions of wallet %d", walletID)
		}
		transactions = append(transactions, *trans)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting transactions of wallet %d", walletID)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var trans domain.Transaction
	err := row.Scan(
		&trans.ID,
		&trans.CreatedAt,
		&trans.UpdatedAt,
		&trans.WalletID,
		&trans.InitiatorID,
		&trans.ReceiverID,
		&trans.Amount,
		&trans.Kind,
		&trans.Status,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &trans, nil
}
