package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type InMemoryAccountManager struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewAccountRepository() *InMemoryAccountManager {
	return &InMemoryAccountManager{
		accounts: make(map[string]models.Account),
	}
}

func (m *InMemoryAccountManager) CreateAccount(_ context.Context, account models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return nil, storage.ErrDuplicate
		}
	}
	m.accounts[account.ID] = account
	return &account, nil
}

func (m *InMemoryAccountManager) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (m *InMemoryAccountManager) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	return &a, nil
}
