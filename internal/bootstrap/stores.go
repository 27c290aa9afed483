package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appRepos "github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/app/repositories/dynamo"
	"github.com/yigit/resultsphere/internal/app/repositories/memory"
	appServices "github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/db"
)

// Stores groups the persistence backends selected by configuration.
// Accounts live in Postgres for both the postgres and dynamodb drivers.
type Stores struct {
	Results   appRepos.ResultStore
	Branches  appRepos.BranchPerformanceStore
	Users     appRepos.UserStore
	Tokens    appRepos.TokenStore
	Updates   appRepos.UpdateStore
	Directory appServices.EmailDirectory
	Database  *db.PostgresDB
}

// Close releases the database pool, if any
func (s *Stores) Close() {
	if s.Database != nil {
		s.Database.Close()
	}
}

// OpenStores connects the stores for driver
func OpenStores(ctx context.Context, cfg *config.Config, driver string, lgr zerolog.Logger) (*Stores, error) {
	switch driver {
	case config.StoreDriverMemory:
		lgr.Warn().Msg("Using in-memory storage, data is lost on exit")
		users := memory.NewUserStore()
		return &Stores{
			Results:   memory.NewResultStore(),
			Branches:  memory.NewBranchPerformanceStore(),
			Users:     users,
			Tokens:    memory.NewTokenStore(),
			Updates:   memory.NewUpdateStore(),
			Directory: users,
		}, nil
	case config.StoreDriverPostgres, config.StoreDriverDynamoDB:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	database, err := SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	repos := appRepos.NewRepositories(database.Pool)
	stores := &Stores{
		Results:   repos.SemesterRepository,
		Branches:  repos.BranchPerformanceRepository,
		Users:     repos.UserRepository,
		Tokens:    repos.TokenRepository,
		Updates:   repos.UpdateRepository,
		Directory: repos.UserRepository,
		Database:  database,
	}

	if driver == config.StoreDriverDynamoDB {
		client, err := dynamo.NewClient(ctx, cfg.Storage.DynamoRegion, cfg.Storage.DynamoEndpoint)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		store := dynamo.NewStore(client, cfg.Storage.DynamoTable)
		stores.Results = store
		stores.Branches = store
		lgr.Info().Str("table", cfg.Storage.DynamoTable).Msg("Student records stored in DynamoDB")
	}

	return stores, nil
}
