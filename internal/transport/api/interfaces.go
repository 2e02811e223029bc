package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type WalletServicer interface {
	Deposit(ctx context.Context, walletID int64, amount decimal.Decimal) (*domain.Transaction, error)
	Withdraw(ctx context.Context, walletID int64, amount decimal.Decimal) (*domain.Transaction, error)
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (*domain.Transaction, error)
	GetWalletByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetBalance(ctx context.Context, walletID int64) (decimal.Decimal, error)
	Transactions(ctx context.Context, walletID int64) ([]domain.Transaction, error)
}
