// Package memory in-memory хранилище ресурсов и бронирований.
// Используется драйвером storage.driver = "memory" и в тестах.
// Транзакция удерживает мьютекс хранилища и ведет журнал отмены:
// при ошибке внутри TxManager.Do все изменения откатываются.
package memory

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Store общее состояние in-memory хранилища
type Store struct {
	mu        sync.Mutex
	resources map[string]domain.Resource
	bookings  map[string]domain.Booking
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		resources: make(map[string]domain.Resource),
		bookings:  make(map[string]domain.Booking),
	}
}

// Resources возвращает репозиторий ресурсов поверх хранилища
func (s *Store) Resources() *ResourceRepository {
	return &ResourceRepository{store: s}
}

// Bookings возвращает репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// TxManager возвращает менеджер транзакций поверх хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

type txKey struct{}

type txState struct {
	store *Store
	undo  []func()
}

func (s *Store) txFrom(ctx context.Context) *txState {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// lock захватывает мьютекс, если вызов не выполняется внутри транзакции этого хранилища
func (s *Store) lock(ctx context.Context) func() {
	if s.txFrom(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// putResource сохраняет ресурс, запоминая предыдущее значение для отката
func (s *Store) putResource(ctx context.Context, res domain.Resource) {
	if tx := s.txFrom(ctx); tx != nil {
		prev, existed := s.resources[res.ID]
		tx.undo = append(tx.undo, func() {
			if existed {
				s.resources[res.ID] = prev
			} else {
				delete(s.resources, res.ID)
			}
		})
	}
	s.resources[res.ID] = res
}

// putBooking сохраняет бронирование, запоминая предыдущее значение для отката
func (s *Store) putBooking(ctx context.Context, b domain.Booking) {
	if tx := s.txFrom(ctx); tx != nil {
		prev, existed := s.bookings[b.ID]
		tx.undo = append(tx.undo, func() {
			if existed {
				s.bookings[b.ID] = prev
			} else {
				delete(s.bookings, b.ID)
			}
		})
	}
	s.bookings[b.ID] = b
}

// TxManager выполняет функции атомарно относительно остальных операций хранилища
type TxManager struct {
	store *Store
}

// Do выполняет fn под блокировкой хранилища, откатывая изменения при ошибке или панике
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := m.store
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{store: s}
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	committed = true
	return nil
}

// DoSerializable в памяти все транзакции сериализуемы
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

// DoReadOnly выполняет fn под блокировкой хранилища
func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}
