package service

// Потокобезопасная in-memory реализация uow.UOW с построчными блокировками и
// откатом незакоммиченных изменений. Моки gomock не умеют проверять реальные
// чередования горутин, поэтому конкурентные свойства сервиса (отсутствие
// потерянных обновлений, недопустимость отрицательного баланса, отсутствие
// дедлоков при встречных переводах) проверяются против этой реализации.
// Семантика повторяет контракт хранилища: блокировка строки до коммита/отката,
// атомарное применение всех изменений, эмуляция CHECK balance >= 0.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

type memWalletRow struct {
	mu     sync.Mutex
	wallet domain.Wallet
}

type memStore struct {
	mu           sync.Mutex
	wallets      map[int64]*memWalletRow
	transactions []domain.Transaction
	nextWalletID int64
	nextTransID  int64

	// failNextCommit заставляет следующий коммит завершиться ошибкой —
	// для проверки полного отката атомарной единицы.
	failNextCommit bool
}

func newMemStore() *memStore {
	return &memStore{
		wallets: make(map[int64]*memWalletRow),
	}
}

func (s *memStore) addWallet(userID int64, balance decimal.Decimal) domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWalletID++
	wallet := domain.Wallet{ID: s.nextWalletID, UserID: userID, Balance: balance}
	s.wallets[wallet.ID] = &memWalletRow{wallet: wallet}
	return wallet
}

func (s *memStore) committedBalance(walletID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[walletID].wallet.Balance
}

func (s *memStore) committedTransactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

type memUOW struct {
	store *memStore
}

func (u *memUOW) Register(uow.RepositoryName, uow.RepositoryFactory) error {
	return nil
}

func (u *memUOW) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	switch name {
	case uow.RepositoryName(repoargs.WalletRepoName):
		return &memWalletRepo{store: u.store}, nil
	case uow.RepositoryName(repoargs.TransactionRepoName):
		return &memTransRepo{store: u.store}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

func (u *memUOW) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	tx := &memTx{
		store:  u.store,
		staged: make(map[int64]domain.Wallet),
	}
	err := fn(ctx, tx)
	if err != nil {
		tx.rollback()
		return err
	}
	return tx.commit()
}

type memTx struct {
	store       *memStore
	locked      []*memWalletRow
	staged      map[int64]domain.Wallet
	stagedTrans []domain.Transaction
}

func (t *memTx) Get(name uow.RepositoryName) (uow.Repository, error) {
	switch name {
	case uow.RepositoryName(repoargs.WalletRepoName):
		return &memWalletRepo{store: t.store, tx: t}, nil
	case uow.RepositoryName(repoargs.TransactionRepoName):
		return &memTransRepo{store: t.store, tx: t}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

func (t *memTx) commit() error {
	t.store.mu.Lock()
	if t.store.failNextCommit {
		t.store.failNextCommit = false
		t.store.mu.Unlock()
		t.rollback()
		return errors.New("commit failed")
	}
	for id, wallet := range t.staged {
		t.store.wallets[id].wallet = wallet
	}
	t.store.transactions = append(t.store.transactions, t.stagedTrans...)
	t.store.mu.Unlock()

	t.rollback() // здесь лишь освобождение блокировок
	return nil
}

func (t *memTx) rollback() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].mu.Unlock()
	}
	t.locked = nil
}

type memWalletRepo struct {
	store *memStore
	tx    *memTx // nil вне транзакции
}

func (r *memWalletRepo) CreateWallet(_ context.Context, userID int64) (*domain.Wallet, error) {
	wallet := r.store.addWallet(userID, decimal.Zero)
	return &wallet, nil
}

func (r *memWalletRepo) GetByID(_ context.Context, id int64) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.wallets[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	wallet := row.wallet
	return &wallet, nil
}

func (r *memWalletRepo) GetByUserID(_ context.Context, userID int64) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, row := range r.store.wallets {
		if row.wallet.UserID == userID {
			wallet := row.wallet
			return &wallet, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memWalletRepo) LockByID(_ context.Context, id int64) (*domain.Wallet, error) {
	if r.tx == nil {
		return nil, errors.New("lock outside of transaction")
	}

	r.store.mu.Lock()
	row, ok := r.store.wallets[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	row.mu.Lock()
	r.tx.locked = append(r.tx.locked, row)
	r.tx.staged[id] = row.wallet

	wallet := row.wallet
	return &wallet, nil
}

func (r *memWalletRepo) AddToBalance(
	_ context.Context,
	id int64,
	delta decimal.Decimal,
) (*domain.Wallet, error) {
	if r.tx == nil {
		return nil, errors.New("balance update outside of transaction")
	}
	wallet, ok := r.tx.staged[id]
	if !ok {
		return nil, fmt.Errorf("wallet %d is not locked", id)
	}

	wallet.Balance = wallet.Balance.Add(delta)
	if wallet.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: check constraint violated on wallet %d", domain.ErrUnknown, id)
	}
	r.tx.staged[id] = wallet
	return &wallet, nil
}

type memTransRepo struct {
	store *memStore
	tx    *memTx // nil вне транзакции
}

func (r *memTransRepo) Create(
	_ context.Context,
	args repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	if r.tx == nil {
		return nil, errors.New("transaction create outside of transaction")
	}

	// id выделяется из последовательности даже для откатываемых записей
	r.store.mu.Lock()
	r.store.nextTransID++
	id := r.store.nextTransID
	r.store.mu.Unlock()

	trans := domain.Transaction{
		ID:          id,
		WalletID:    args.WalletID,
		InitiatorID: args.InitiatorID,
		ReceiverID:  args.ReceiverID,
		Amount:      args.Amount,
		Kind:        args.Kind,
		Status:      domain.TransactionStatusPending,
	}
	r.tx.stagedTrans = append(r.tx.stagedTrans, trans)
	return &trans, nil
}

func (r *memTransRepo) SetStatus(
	_ context.Context,
	id int64,
	status domain.TransactionStatus,
) (*domain.Transaction, error) {
	if r.tx == nil {
		return nil, errors.New("status update outside of transaction")
	}
	for i := range r.tx.stagedTrans {
		if r.tx.stagedTrans[i].ID == id {
			r.tx.stagedTrans[i].Status = status
			trans := r.tx.stagedTrans[i]
			return &trans, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memTransRepo) GetByWalletID(_ context.Context, walletID int64) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []domain.Transaction
	for _, trans := range r.store.transactions {
		if trans.WalletID == walletID {
			out = append(out, trans)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

var (
	_ uow.UOW               = (*memUOW)(nil)
	_ uow.TX                = (*memTx)(nil)
	_ WalletRepository      = (*memWalletRepo)(nil)
	_ TransactionRepository = (*memTransRepo)(nil)
)
