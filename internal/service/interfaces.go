package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type WalletRepository interface {
	CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	LockByID(ctx context.Context, id int64) (*domain.Wallet, error)
	AddToBalance(ctx context.Context, id int64, delta decimal.Decimal) (*domain.Wallet, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error)
	SetStatus(ctx context.Context, id int64, status domain.TransactionStatus) (*domain.Transaction, error)
	GetByWalletID(ctx context.Context, walletID int64) ([]domain.Transaction, error)
}
