package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")
)

// InvalidTransactionError ошибка валидации операции: не положительная сумма,
// неверная точность, перевод самому себе и т.п. Возвращается до того как будет
// взята хоть одна блокировка. Повтор запроса без исправления данных бессмыслен.
type InvalidTransactionError struct {
	Reason string
}

func NewInvalidTransactionError(reason string) error {
	return &InvalidTransactionError{Reason: reason}
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction: %s", e.Reason)
}

// InsufficientFundsError недостаточно средств на балансе. Проверка выполняется
// под блокировкой строки, поэтому Available — актуальный баланс на момент операции.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func NewInsufficientFundsError(available, requested decimal.Decimal) error {
	return &InsufficientFundsError{Available: available, Requested: requested}
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: available %s, requested %s",
		e.Available.StringFixed(2),
		e.Requested.StringFixed(2),
	)
}

// TransactionProcessingError инфраструктурная ошибка во время атомарной операции
// (таймаут блокировки, ошибка коммита и т.д.). Все изменения откачены, так что
// вызывающая сторона может повторить операцию целиком.
type TransactionProcessingError struct {
	Op  string
	Err error
}

func NewTransactionProcessingError(op string, err error) error {
	return &TransactionProcessingError{Op: op, Err: err}
}

func (e *TransactionProcessingError) Error() string {
	return fmt.Sprintf("transaction processing failed on %s: %s", e.Op, e.Err.Error())
}

func (e *TransactionProcessingError) Unwrap() error {
	return e.Err
}
