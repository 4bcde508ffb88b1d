package postgres

import (
	"context"
	"fmt"

	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/pkg/logger"
	psqlpool "ucode/ucode_content_query_service/pool"
	"ucode/ucode_content_query_service/storage"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db       *psqlpool.Pool
	logger   logger.LoggerI
	executor storage.ExecutorI
	posts    storage.PostsRepoI
}

func NewPostgres(ctx context.Context, cfg config.Config, log logger.LoggerI) (*Store, error) {
	pgxCfg, err := pgxpool.ParseConfig(dbURL(cfg))
	if err != nil {
		return nil, err
	}

	pgxCfg.MaxConns = cfg.PostgresMaxConnections

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     &psqlpool.Pool{Db: pool},
		logger: log,
	}, nil
}

// RunMigrations creates the content schema tables.
func RunMigrations(cfg config.Config) error {
	m, err := migrate.New(cfg.MigrationsPath, dbURL(cfg))
	if err != nil {
		return err
	}

	defer m.Close()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func dbURL(cfg config.Config) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresDatabase,
	)
}

// Pool exposes the underlying connection pool for collaborators that issue
// their own lookups (the taxonomy predicate builder).
func (s *Store) Pool() *psqlpool.Pool {
	return s.db
}

func (s *Store) CloseDB() {
	s.db.Db.Close()
}

func (s *Store) Executor() storage.ExecutorI {
	if s.executor == nil {
		s.executor = NewExecutor(s.db)
	}

	return s.executor
}

func (s *Store) Posts() storage.PostsRepoI {
	if s.posts == nil {
		s.posts = NewPostsRepo(s.db)
	}

	return s.posts
}
