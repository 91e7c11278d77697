package repositories

import (
	"context"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"gorm.io/gorm"
)

// PostgresStore keeps users, posts and the user_posts link table in
// PostgreSQL. RunInTx maps to a database transaction.
type PostgresStore struct {
	db    *gorm.DB
	users *PostgresUserRepository
	posts *PostgresPostRepository
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{
		db:    db,
		users: NewPostgresUserRepository(db),
		posts: NewPostgresPostRepository(db),
	}
}

func (s *PostgresStore) Users() UserRepository { return s.users }
func (s *PostgresStore) Posts() PostRepository { return s.posts }

func (s *PostgresStore) RunInTx(ctx context.Context, fn TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewPostgresUserRepository(tx), NewPostgresPostRepository(tx))
	})
}

// Migrate runs the GORM auto-migrations for every model the store owns.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.UserPost{},
	)
}
