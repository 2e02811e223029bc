package repoargs

import (
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
)

// TransactionCreate аргументы создания записи транзакции. Запись всегда
// создается в статусе pending внутри той же атомарной единицы, что и изменение
// баланса. InitiatorID и ReceiverID заполняются только для переводов.
type TransactionCreate struct {
	WalletID    int64
	InitiatorID *int64
	ReceiverID  *int64
	Amount      decimal.Decimal
	Kind        domain.TransactionKind
}
