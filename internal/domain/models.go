package domain

import (
	"github.com/shopspring/decimal"

	"time"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Email     string
	Password  string
}

// Wallet кошелек пользователя. У каждого пользователя ровно один кошелек,
// создается вместе с пользователем с нулевым балансом. Баланс не может быть
// отрицательным и меняется только под блокировкой строки.
type Wallet struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    int64
	Balance   decimal.Decimal
}

// Transaction неизменяемая запись об одной операции с балансом.
// Для переводов заполнены InitiatorID и ReceiverID (и они различны),
// для пополнений и списаний оба поля пустые.
type Transaction struct {
	ID          int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WalletID    int64
	InitiatorID *int64
	ReceiverID  *int64
	Amount      decimal.Decimal
	Kind        TransactionKind
	Status      TransactionStatus
}

func (t *Transaction) IsTransfer() bool {
	return t.Kind == TransactionKindTransfer
}
