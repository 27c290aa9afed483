package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
)

// ResultStore is the per-semester student record store used by ingestion and the results API
type ResultStore interface {
	ingestion.SemesterStore
	ListRolls(ctx context.Context, semester ingestion.Semester) ([]string, error)
}

// BranchPerformanceStore keeps one branch summary per semester
type BranchPerformanceStore interface {
	ingestion.BranchPerformanceStore
	GetBranchPerformance(ctx context.Context, semester ingestion.Semester) (*models.BranchPerformanceRecord, error)
}

// UserStore defines user account operations
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRoll(ctx context.Context, roll string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error)
	ListEmails(ctx context.Context) ([]string, error)
}

// UserFilter narrows an account listing. Zero fields match everything.
type UserFilter struct {
	RollPrefix string
	Email      string // case-insensitive substring
	IsAdmin    *bool
	Offset     uint64
	Limit      int
}

// TokenStore defines refresh token persistence
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
}

// UpdateStore keeps portal announcements
type UpdateStore interface {
	Create(ctx context.Context, update *models.Update) error
	List(ctx context.Context) ([]*models.Update, error)
}

// Repositories holds all the Postgres repository instances
type Repositories struct {
	UserRepository              *UserRepository
	TokenRepository             *TokenRepository
	SemesterRepository          *SemesterRepository
	BranchPerformanceRepository *BranchPerformanceRepository
	UpdateRepository            *UpdateRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:              NewUserRepository(db),
		TokenRepository:             NewTokenRepository(db),
		SemesterRepository:          NewSemesterRepository(db),
		BranchPerformanceRepository: NewBranchPerformanceRepository(db),
		UpdateRepository:            NewUpdateRepository(db),
	}
}
