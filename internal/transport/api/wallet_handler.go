package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
)

type WalletHandler struct {
	wallets WalletServicer
	users   UserServicer
}

func NewWalletHandler(wallets WalletServicer, users UserServicer) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		users:   users,
	}
}

type TransactionResponse struct {
	ID          int64           `json:"id"`
	WalletID    int64           `json:"wallet_id"`
	InitiatorID *int64          `json:"initiator_id"`
	ReceiverID  *int64          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
}

func newTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		InitiatorID: t.InitiatorID,
		ReceiverID:  t.ReceiverID,
		Amount:      t.Amount,
		Kind:        string(t.Kind),
		Status:      string(t.Status),
	}
}

type AmountParams struct {
	Amount decimal.Decimal `binding:"required" json:"amount"`
}

// Deposit POST RouteGroup + DepositRoute. Пополняет кошелек текущего пользователя.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var params AmountParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, ok := h.currentWallet(reqCtx, c)
	if !ok {
		return
	}

	trans, err := h.wallets.Deposit(reqCtx, wallet.ID, params.Amount)
	if err != nil {
		h.abortWithEngineError(c, err)
		return
	}

	h.renderTransactionSuccess(reqCtx, c, "Deposit successful", wallet.ID, trans)
}

// Withdraw POST RouteGroup + WithdrawRoute. Списывает средства с кошелька
// текущего пользователя.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var params AmountParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, ok := h.currentWallet(reqCtx, c)
	if !ok {
		return
	}

	trans, err := h.wallets.Withdraw(reqCtx, wallet.ID, params.Amount)
	if err != nil {
		h.abortWithEngineError(c, err)
		return
	}

	h.renderTransactionSuccess(reqCtx, c, "Withdrawal successful", wallet.ID, trans)
}

type TransferParams struct {
	ReceiverID int64           `binding:"required" json:"receiver_id"`
	Amount     decimal.Decimal `binding:"required" json:"amount"`
}

// Transfer POST RouteGroup + TransferRoute. Переводит средства с кошелька
// текущего пользователя на кошелек пользователя receiver_id. Получатель
// резолвится в кошелек здесь, на транспортном слое: сервису передаются только
// уже существующие кошельки.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var params TransferParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, ok := h.currentWallet(reqCtx, c)
	if !ok {
		return
	}

	receiverWallet, receiverErr := h.wallets.GetWalletByUserID(reqCtx, params.ReceiverID)
	if receiverErr != nil {
		if errors.Is(receiverErr, domain.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "receiver not found"})
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, receiverErr).SetType(gin.ErrorTypePrivate)
		return
	}

	trans, err := h.wallets.Transfer(reqCtx, wallet.ID, receiverWallet.ID, params.Amount)
	if err != nil {
		h.abortWithEngineError(c, err)
		return
	}

	h.renderTransactionSuccess(reqCtx, c, "Transfer successful", wallet.ID, trans)
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
	User    struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// Balance GET RouteGroup + BalanceRoute. Возвращает текущий зафиксированный
// баланс кошелька пользователя. Чтение без блокировок.
func (h *WalletHandler) Balance(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, ok := h.currentWallet(reqCtx, c)
	if !ok {
		return
	}

	user, userErr := h.users.GetByID(reqCtx, wallet.UserID)
	if userErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, userErr).SetType(gin.ErrorTypePrivate)
		return
	}

	var response BalanceResponse
	response.Balance = wallet.Balance
	response.User.ID = user.ID
	response.User.Name = user.Name
	response.User.Email = user.Email

	c.JSON(http.StatusOK, response)
}

// Transactions GET RouteGroup + TransactionsRoute. История операций кошелька,
// новые первыми.
func (h *WalletHandler) Transactions(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, ok := h.currentWallet(reqCtx, c)
	if !ok {
		return
	}

	transactions, err := h.wallets.Transactions(reqCtx, wallet.ID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	response := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		response[i] = newTransactionResponse(&transactions[i])
	}

	c.JSON(http.StatusOK, response)
}

// currentWallet возвращает кошелек текущего пользователя. При ошибке пишет
// ответ и возвращает false.
func (h *WalletHandler) currentWallet(ctx context.Context, c *gin.Context) (*domain.Wallet, bool) {
	currentUserID := getUserIDFromContext(c)

	wallet, err := h.wallets.GetWalletByUserID(ctx, currentUserID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return nil, false
	}
	return wallet, true
}

// renderTransactionSuccess отвечает единым форматом на успешную операцию:
// сообщение, актуальный баланс кошелька и созданная транзакция.
func (h *WalletHandler) renderTransactionSuccess(
	ctx context.Context,
	c *gin.Context,
	message string,
	walletID int64,
	trans *domain.Transaction,
) {
	balance, err := h.wallets.GetBalance(ctx, walletID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"balance":     balance,
		"transaction": newTransactionResponse(trans),
	})
}

// abortWithEngineError транслирует типизированные ошибки сервиса в HTTP статусы:
// бизнес-ошибки уходят клиенту с текстом причины, инфраструктурные — как 500
// без деталей.
func (h *WalletHandler) abortWithEngineError(c *gin.Context, err error) {
	var insufficientErr *domain.InsufficientFundsError
	var invalidErr *domain.InvalidTransactionError

	switch {
	case errors.As(err, &insufficientErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": insufficientErr.Error()})
	case errors.As(err, &invalidErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": invalidErr.Error()})
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}
