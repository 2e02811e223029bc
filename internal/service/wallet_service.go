package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

// WalletService единственный компонент, которому позволено менять балансы.
// Каждая операция выполняется как одна атомарная единица: блокировка строк
// кошельков, проверка инвариантов, создание записи транзакции, изменение
// балансов и перевод записи в completed коммитятся или откатываются целиком.
type WalletService struct {
	uow        uow.UOW
	walletRepo WalletRepository
	transRepo  TransactionRepository
}

func NewWalletService(u uow.UOW) (*WalletService, error) {
	walletRepo, walletRepoErr := uow.GetRepositoryAs[WalletRepository](
		u,
		uow.RepositoryName(repoargs.WalletRepoName),
	)
	if walletRepoErr != nil {
		return nil, walletRepoErr
	}
	transRepo, transRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if transRepoErr != nil {
		return nil, transRepoErr
	}
	return &WalletService{
		uow:        u,
		walletRepo: walletRepo,
		transRepo:  transRepo,
	}, nil
}

// Deposit пополняет кошелек walletID на amount. Сумма проверяется до открытия
// транзакции, баланс меняется под блокировкой строки. Возвращает завершенную
// транзакцию либо одну из типизированных ошибок: *domain.InvalidTransactionError,
// *domain.TransactionProcessingError.
func (s *WalletService) Deposit(
	ctx context.Context,
	walletID int64,
	amount decimal.Decimal,
) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var trans *domain.Transaction
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		wallets, transactions, reposErr := txRepos(tx)
		if reposErr != nil {
			return reposErr
		}

		wallet, lockErr := wallets.LockByID(c, walletID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}

		created, createErr := transactions.Create(c, repoargs.TransactionCreate{
			WalletID: wallet.ID,
			Amount:   amount,
			Kind:     domain.TransactionKindDeposit,
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		if _, balErr := wallets.AddToBalance(c, wallet.ID, amount); balErr != nil {
			return balErr //nolint:wrapcheck
		}

		completed, statusErr := transactions.SetStatus(c, created.ID, domain.TransactionStatusCompleted)
		if statusErr != nil {
			return statusErr //nolint:wrapcheck
		}
		trans = completed
		return nil
	})

	if txErr != nil {
		return nil, classifyEngineErr(txErr, "deposit")
	}
	return trans, nil
}

// Withdraw списывает amount с кошелька walletID. Баланс перечитывается под той же
// блокировкой, под которой изменяется: иначе два конкурентных списания могли бы
// оба увидеть достаточный баланс до коммита друг друга. При нехватке средств
// возвращает *domain.InsufficientFundsError с актуальным балансом, транзакция БД
// откатывается и завершенная запись не создается.
func (s *WalletService) Withdraw(
	ctx context.Context,
	walletID int64,
	amount decimal.Decimal,
) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var trans *domain.Transaction
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		wallets, transactions, reposErr := txRepos(tx)
		if reposErr != nil {
			return reposErr
		}

		wallet, lockErr := wallets.LockByID(c, walletID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}

		if wallet.Balance.LessThan(amount) {
			return domain.NewInsufficientFundsError(wallet.Balance, amount)
		}

		created, createErr := transactions.Create(c, repoargs.TransactionCreate{
			WalletID: wallet.ID,
			Amount:   amount,
			Kind:     domain.TransactionKindWithdrawal,
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		if _, balErr := wallets.AddToBalance(c, wallet.ID, amount.Neg()); balErr != nil {
			return balErr //nolint:wrapcheck
		}

		completed, statusErr := transactions.SetStatus(c, created.ID, domain.TransactionStatusCompleted)
		if statusErr != nil {
			return statusErr //nolint:wrapcheck
		}
		trans = completed
		return nil
	})

	if txErr != nil {
		return nil, classifyEngineErr(txErr, "withdraw")
	}
	return trans, nil
}

// Transfer переводит amount с кошелька fromID на кошелек toID. Либо меняются оба
// баланса и существует одна завершенная запись перевода, либо не меняется ничего.
//
// Блокировки двух кошельков всегда берутся в порядке возрастания id независимо от
// направления перевода (см. lockWallets) — это единственный механизм защиты от
// дедлоков при встречных переводах.
func (s *WalletService) Transfer(
	ctx context.Context,
	fromID int64,
	toID int64,
	amount decimal.Decimal,
) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, domain.NewInvalidTransactionError("initiator and receiver must be different")
	}

	var trans *domain.Transaction
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		wallets, transactions, reposErr := txRepos(tx)
		if reposErr != nil {
			return reposErr
		}

		locked, lockErr := lockWallets(c, wallets, fromID, toID)
		if lockErr != nil {
			return lockErr
		}
		from := locked[fromID]
		to := locked[toID]

		if from.Balance.LessThan(amount) {
			return domain.NewInsufficientFundsError(from.Balance, amount)
		}

		created, createErr := transactions.Create(c, repoargs.TransactionCreate{
			WalletID:    from.ID,
			InitiatorID: &from.ID,
			ReceiverID:  &to.ID,
			Amount:      amount,
			Kind:        domain.TransactionKindTransfer,
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		if _, balErr := wallets.AddToBalance(c, from.ID, amount.Neg()); balErr != nil {
			return balErr //nolint:wrapcheck
		}
		if _, balErr := wallets.AddToBalance(c, to.ID, amount); balErr != nil {
			return balErr //nolint:wrapcheck
		}

		completed, statusErr := transactions.SetStatus(c, created.ID, domain.TransactionStatusCompleted)
		if statusErr != nil {
			return statusErr //nolint:wrapcheck
		}
		trans = completed
		return nil
	})

	if txErr != nil {
		return nil, classifyEngineErr(txErr, "transfer")
	}
	return trans, nil
}

// GetWalletByUserID возвращает кошелек пользователя userID.
func (s *WalletService) GetWalletByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return wallet, nil
}

// GetBalance возвращает текущий зафиксированный баланс кошелька. Чтение без
// блокировок: видит любой закоммиченный снимок, но никогда — частично
// примененную операцию.
func (s *WalletService) GetBalance(ctx context.Context, walletID int64) (decimal.Decimal, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return decimal.Zero, err //nolint:wrapcheck
	}
	return wallet.Balance, nil
}

// Transactions возвращает историю операций кошелька, новые первыми.
func (s *WalletService) Transactions(ctx context.Context, walletID int64) ([]domain.Transaction, error) {
	transactions, err := s.transRepo.GetByWalletID(ctx, walletID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return transactions, nil
}

// lockWallets блокирует строки кошельков ids строго в порядке возрастания
// идентификатора. Единый порядок у всех конкурирующих операций делает цикл
// ожидания блокировок структурно невозможным. Любой будущий код, блокирующий
// более одного кошелька, обязан идти через этот хелпер, а не брать блокировки
// самостоятельно.
func lockWallets(
	ctx context.Context,
	wallets WalletRepository,
	ids ...int64,
) (map[int64]*domain.Wallet, error) {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)

	locked := make(map[int64]*domain.Wallet, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		wallet, err := wallets.LockByID(ctx, id)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		locked[id] = wallet
	}
	return locked, nil
}

func txRepos(tx uow.TX) (WalletRepository, TransactionRepository, error) {
	wallets, walletsErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
	if walletsErr != nil {
		return nil, nil, walletsErr //nolint:wrapcheck
	}
	transactions, transErr := uow.GetAs[TransactionRepository](
		tx,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if transErr != nil {
		return nil, nil, transErr //nolint:wrapcheck
	}
	return wallets, transactions, nil
}

// classifyEngineErr разделяет бизнес-ошибки и инфраструктурные. Бизнес-ошибки
// (недостаточно средств, некорректная операция) проходят без изменений — по ним
// вызывающая сторона показывает причину пользователю. Отсутствующий кошелек
// означает, что операция пришла с невалидной ссылкой. Все остальное — сбой
// обработки: ничего не закоммичено, операцию можно повторить целиком.
func classifyEngineErr(err error, op string) error {
	var insufficientErr *domain.InsufficientFundsError
	var invalidErr *domain.InvalidTransactionError

	switch {
	case errors.As(err, &insufficientErr), errors.As(err, &invalidErr):
		return err
	case errors.Is(err, domain.ErrRecordNotFound):
		return domain.NewInvalidTransactionError(fmt.Sprintf("%s: wallet not found", op))
	default:
		return domain.NewTransactionProcessingError(op, err)
	}
}
