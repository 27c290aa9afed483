// Package memory keeps results in process memory. It backs tests and dry-run ingestion.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

type semesterTable struct {
	records map[string]models.StudentRecord
	order   []string
}

// ResultStore is an in-memory per-semester student store
type ResultStore struct {
	mutex     sync.RWMutex
	semesters map[string]*semesterTable
}

// NewResultStore creates an empty ResultStore
func NewResultStore() *ResultStore {
	return &ResultStore{semesters: make(map[string]*semesterTable)}
}

// FindByRoll returns a copy of the stored record
func (s *ResultStore) FindByRoll(_ context.Context, semester ingestion.Semester, roll string) (*models.StudentRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	table, ok := s.semesters[semester.Collection()]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", apperrors.ErrStudentNotFound, roll, semester.Collection())
	}
	rec, ok := table.records[roll]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", apperrors.ErrStudentNotFound, roll, semester.Collection())
	}
	out := rec.Clone()
	return &out, nil
}

// Upsert stores a copy of the record, replacing any previous one for the roll
func (s *ResultStore) Upsert(_ context.Context, semester ingestion.Semester, record *models.StudentRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	table, ok := s.semesters[semester.Collection()]
	if !ok {
		table = &semesterTable{records: make(map[string]models.StudentRecord)}
		s.semesters[semester.Collection()] = table
	}
	if _, exists := table.records[record.Roll]; !exists {
		table.order = append(table.order, record.Roll)
	}
	table.records[record.Roll] = record.Clone()
	return nil
}

// ListRolls returns the rolls stored for a semester in insertion order
func (s *ResultStore) ListRolls(_ context.Context, semester ingestion.Semester) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	table, ok := s.semesters[semester.Collection()]
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), table.order...), nil
}

// BranchPerformanceStore is an in-memory branch summary store keyed by semester
type BranchPerformanceStore struct {
	mutex   sync.RWMutex
	records map[string]models.BranchPerformanceRecord
}

// NewBranchPerformanceStore creates an empty BranchPerformanceStore
func NewBranchPerformanceStore() *BranchPerformanceStore {
	return &BranchPerformanceStore{records: make(map[string]models.BranchPerformanceRecord)}
}

// UpsertBranchPerformance replaces the summary of the record's semester
func (s *BranchPerformanceStore) UpsertBranchPerformance(_ context.Context, record *models.BranchPerformanceRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[record.Semester] = cloneBranchRecord(*record)
	return nil
}

// GetBranchPerformance returns the stored summary of a semester
func (s *BranchPerformanceStore) GetBranchPerformance(_ context.Context, semester ingestion.Semester) (*models.BranchPerformanceRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[semester.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBranchPerformanceNotFound, semester)
	}
	out := cloneBranchRecord(rec)
	return &out, nil
}

func cloneBranchRecord(r models.BranchPerformanceRecord) models.BranchPerformanceRecord {
	out := r
	out.Branches = make([]models.BranchPerformance, len(r.Branches))
	for i, b := range r.Branches {
		b.Subjects = append([]models.SubjectPerformance(nil), b.Subjects...)
		out.Branches[i] = b
	}
	return out
}

// UserStore is an in-memory user table with unique roll and email
type UserStore struct {
	mutex  sync.RWMutex
	nextID int64
	users  map[int64]models.User
}

// NewUserStore creates an empty UserStore
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]models.User)}
}

// Create inserts a user and sets its ID
func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, u := range s.users {
		if u.Roll == user.Roll {
			return apperrors.ErrRollAlreadyExists
		}
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	s.nextID++
	now := time.Now()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

// GetByRoll retrieves a user by roll number
func (s *UserStore) GetByRoll(_ context.Context, roll string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Roll == roll })
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, u := range s.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// UpdateLastLogin updates the last login time
func (s *UserStore) UpdateLastLogin(_ context.Context, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	s.users[userID] = u
	return nil
}

// Update replaces a stored user, keeping roll and email unique
func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	for id, u := range s.users {
		if id == user.ID {
			continue
		}
		if u.Roll == user.Roll {
			return apperrors.ErrRollAlreadyExists
		}
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.CreatedAt = current.CreatedAt
	user.LastLoginAt = current.LastLoginAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

// List returns one page of users matching filter, ordered by ID
func (s *UserStore) List(_ context.Context, filter repositories.UserFilter) ([]*models.User, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	matched := make([]models.User, 0, len(s.users))
	email := strings.ToLower(filter.Email)
	for _, u := range s.users {
		if filter.RollPrefix != "" && !strings.HasPrefix(u.Roll, filter.RollPrefix) {
			continue
		}
		if email != "" && !strings.Contains(strings.ToLower(u.Email), email) {
			continue
		}
		if filter.IsAdmin != nil && u.IsAdmin != *filter.IsAdmin {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := int(filter.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]*models.User, 0, end-start)
	for i := start; i < end; i++ {
		u := matched[i]
		out = append(out, &u)
	}
	return out, total, nil
}

// ListEmails returns the address of every account, ordered by ID
func (s *UserStore) ListEmails(ctx context.Context) ([]string, error) {
	users, _, err := s.List(ctx, repositories.UserFilter{})
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

// EmailForRoll returns the registered email of a student
func (s *UserStore) EmailForRoll(ctx context.Context, roll string) (string, error) {
	u, err := s.GetByRoll(ctx, roll)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

type refreshToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

// TokenStore is an in-memory refresh token table
type TokenStore struct {
	mutex  sync.Mutex
	tokens map[string]*refreshToken
}

// NewTokenStore creates an empty TokenStore
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]*refreshToken)}
}

// CreateToken stores a new refresh token
func (s *TokenStore) CreateToken(_ context.Context, token string, userID int64, expiryDate time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.tokens[token]; exists {
		return apperrors.ErrTokenInvalid
	}
	s.tokens[token] = &refreshToken{userID: userID, expiry: expiryDate}
	return nil
}

// GetTokenByValue returns the owner and expiry of a live refresh token
func (s *TokenStore) GetTokenByValue(_ context.Context, token string) (int64, time.Time, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	t, ok := s.tokens[token]
	switch {
	case !ok:
		return 0, time.Time{}, apperrors.ErrTokenNotFound
	case t.revoked:
		return 0, time.Time{}, apperrors.ErrTokenRevoked
	case t.expiry.Before(time.Now()):
		return 0, time.Time{}, apperrors.ErrTokenExpired
	}
	return t.userID, t.expiry, nil
}

// RevokeToken marks a refresh token as used
func (s *TokenStore) RevokeToken(_ context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	return nil
}

// UpdateStore is an in-memory announcement list
type UpdateStore struct {
	mutex   sync.RWMutex
	nextID  int64
	updates []models.Update
}

// NewUpdateStore creates an empty UpdateStore
func NewUpdateStore() *UpdateStore {
	return &UpdateStore{}
}

// Create stores an announcement and sets its ID and creation time
func (s *UpdateStore) Create(_ context.Context, update *models.Update) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	update.ID = s.nextID
	update.CreatedAt = time.Now()
	s.updates = append(s.updates, *update)
	return nil
}

// List returns every announcement, newest first
func (s *UpdateStore) List(_ context.Context) ([]*models.Update, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]*models.Update, 0, len(s.updates))
	for i := len(s.updates) - 1; i >= 0; i-- {
		u := s.updates[i]
		out = append(out, &u)
	}
	return out, nil
}
