package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/groph-wallet/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup        = "/api/v1"
	RegisterRoute     = "/user/register"
	LoginRoute        = "/user/login"
	DepositRoute      = "/wallets/deposit"
	WithdrawRoute     = "/wallets/withdraw"
	TransferRoute     = "/wallets/transfer"
	BalanceRoute      = "/wallets/balance"
	TransactionsRoute = "/wallets/transactions"
)

type RouterArgs struct {
	Logger        *logrus.Logger
	UserService   UserServicer
	WalletService WalletServicer
	JWTSecretKey  []byte
}

func New(args RouterArgs) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService)
	walletHandler := NewWalletHandler(args.WalletService, args.UserService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.POST(DepositRoute, walletHandler.Deposit)
	api.POST(WithdrawRoute, walletHandler.Withdraw)
	api.POST(TransferRoute, walletHandler.Transfer)

	api.GET(BalanceRoute, walletHandler.Balance)
	api.GET(TransactionsRoute, walletHandler.Transactions)
	return r
}
