package domain

import "github.com/shopspring/decimal"

const (
	// AmountScale число знаков после запятой у денежных сумм (numeric(15,2) в БД).
	AmountScale = 2
	// AmountMaxIntegerDigits максимальное число знаков до запятой.
	AmountMaxIntegerDigits = 13
)

// amountCeiling = 10^13. Суммы строго меньше этого значения.
var amountCeiling = decimal.New(1, AmountMaxIntegerDigits)

// ValidateAmount проверяет сумму операции: строго больше нуля, не более двух
// знаков после запятой и в пределах допустимой разрядности. Вызывается до
// открытия транзакции и взятия блокировок, чтобы некорректные запросы не
// конкурировали за строки БД. Возвращает *InvalidTransactionError.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewInvalidTransactionError("amount must be greater than 0")
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return NewInvalidTransactionError("amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(amountCeiling) {
		return NewInvalidTransactionError("amount is out of range")
	}
	return nil
}
