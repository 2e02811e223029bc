package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fsdevblog/groph-wallet/internal/domain"
)

func newMemWalletService(t *testing.T, store *memStore) *WalletService {
	t.Helper()
	svc, err := NewWalletService(&memUOW{store: store})
	require.NoError(t, err)
	return svc
}

// Десять конкурентных пополнений по 10.00 не теряют ни одного обновления:
// итоговый баланс равен сумме всех пополнений, и каждая запись завершена.
func TestWalletService_ConcurrentDeposits(t *testing.T) {
	store := newMemStore()
	wallet := store.addWallet(1, decimal.RequireFromString("1000.00"))
	svc := newMemWalletService(t, store)

	const workers = 10
	amount := decimal.RequireFromString("10.00")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deposit(context.Background(), wallet.ID, amount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.True(t, decimal.RequireFromString("1100.00").Equal(store.committedBalance(wallet.ID)))

	transactions := store.committedTransactions()
	require.Len(t, transactions, workers)
	for _, trans := range transactions {
		require.Equal(t, domain.TransactionStatusCompleted, trans.Status)
		require.Equal(t, domain.TransactionKindDeposit, trans.Kind)
	}
}

// Конкурентные списания никогда не уводят баланс в минус: успешных операций
// ровно столько, сколько покрывает исходный баланс, остальные получают
// InsufficientFundsError.
func TestWalletService_ConcurrentWithdrawalsNeverNegative(t *testing.T) {
	store := newMemStore()
	wallet := store.addWallet(1, decimal.RequireFromString("100.00"))
	svc := newMemWalletService(t, store)

	const workers = 10
	amount := decimal.RequireFromString("30.00")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), wallet.ID, amount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficientErr *domain.InsufficientFundsError
		require.ErrorAs(t, err, &insufficientErr)
	}

	require.Equal(t, 3, succeeded) // 100.00 покрывает ровно три списания по 30.00

	balance := store.committedBalance(wallet.ID)
	require.False(t, balance.IsNegative())
	require.True(t, decimal.RequireFromString("10.00").Equal(balance))
	require.Len(t, store.committedTransactions(), succeeded)
}

// Встречные переводы между одной парой кошельков не взаимоблокируются и
// сохраняют суммарный баланс пары.
func TestWalletService_OpposingTransfersDeadlockFree(t *testing.T) {
	store := newMemStore()
	first := store.addWallet(1, decimal.RequireFromString("1000.00"))
	second := store.addWallet(2, decimal.RequireFromString("1000.00"))
	svc := newMemWalletService(t, store)

	const rounds = 200
	amount := decimal.RequireFromString("1.00")

	done := make(chan struct{})
	errs := make(chan error, 2*rounds)
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, pair := range [][2]int64{{first.ID, second.ID}, {second.ID, first.ID}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range rounds {
					_, err := svc.Transfer(context.Background(), pair[0], pair[1], amount)
					errs <- err
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("opposing transfers did not finish: deadlock suspected")
	}
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	total := store.committedBalance(first.ID).Add(store.committedBalance(second.ID))
	require.True(t, decimal.RequireFromString("2000.00").Equal(total))
	require.Len(t, store.committedTransactions(), 2*rounds)
}

// Перевод атомарен: при сбое коммита не меняется ни один из двух балансов и
// запись транзакции не появляется.
func TestWalletService_TransferRollbackOnCommitFailure(t *testing.T) {
	store := newMemStore()
	from := store.addWallet(1, decimal.RequireFromString("500.00"))
	to := store.addWallet(2, decimal.RequireFromString("200.00"))
	svc := newMemWalletService(t, store)

	store.failNextCommit = true

	_, err := svc.Transfer(context.Background(), from.ID, to.ID, decimal.RequireFromString("100.00"))

	var processingErr *domain.TransactionProcessingError
	require.ErrorAs(t, err, &processingErr)

	require.True(t, decimal.RequireFromString("500.00").Equal(store.committedBalance(from.ID)))
	require.True(t, decimal.RequireFromString("200.00").Equal(store.committedBalance(to.ID)))
	require.Empty(t, store.committedTransactions())
}
