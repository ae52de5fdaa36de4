package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

type accountRepository struct {
	mutex   sync.RWMutex
	table   map[string]account.Account
	reviews map[string][]account.Review // keyed by reviewed user id
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository() account.Repository {
	return &accountRepository{
		table:   make(map[string]account.Account),
		reviews: make(map[string][]account.Review),
	}
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account, exec ...core.DBExecutor) (account.Account, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.table[acct.ID] = acct
	return acct, nil
}

func (repo *accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if filter.ID != "" {
		if acct, ok := repo.table[filter.ID]; ok {
			return acct, nil
		}
		return account.Account{}, account.ErrNotFound
	}
	for _, acct := range repo.table {
		if acct.Email == filter.Email {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) QueryAccounts(ctx context.Context, filter *account.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]account.Account, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	accts := make([]account.Account, 0, len(repo.table))
	for _, acct := range repo.table {
		if filter != nil && !matchAccount(acct, filter) {
			continue
		}
		accts = append(accts, acct)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].ID < accts[j].ID })
	return accts, nil
}

func matchAccount(acct account.Account, filter *account.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(acct.Name), s) &&
			!strings.Contains(strings.ToLower(acct.Email), s) {
			return false
		}
	}
	if len(filter.Skills) > 0 {
		var found bool
		for _, skill := range filter.Skills {
			if core.ContainsString(acct.Skills, skill) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Verified != nil && acct.SkillsVerified != *filter.Verified {
		return false
	}
	if !filter.CreatedFrom.IsZero() && acct.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && acct.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account, exec ...core.DBExecutor) (account.Account, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if _, ok := repo.table[acct.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	repo.table[acct.ID] = acct
	return acct, nil
}

func (repo *accountRepository) CreateReview(ctx context.Context, rev account.Review, exec ...core.DBExecutor) (account.Review, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	rev.ID = uuid.New().String()
	repo.reviews[rev.UserID] = append(repo.reviews[rev.UserID], rev)
	return rev, nil
}

func (repo *accountRepository) QueryReviews(ctx context.Context, userID string, exec ...core.DBExecutor) ([]account.Review, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	return append([]account.Review(nil), repo.reviews[userID]...), nil
}
