package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore keeps users and posts in one database. With transactions
// enabled RunInTx uses a session transaction, which needs a replica set.
// Without them the unit runs as a plain sequence and a late failure can
// leave a post that is missing from its creator's list.
type MongoStore struct {
	client       *mongo.Client
	users        *MongoUserRepository
	posts        *MongoPostRepository
	transactions bool
}

func NewMongoStore(client *mongo.Client, database string, transactions bool) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:       client,
		users:        NewMongoUserRepository(db),
		posts:        NewMongoPostRepository(db),
		transactions: transactions,
	}
}

func (s *MongoStore) Users() UserRepository { return s.users }
func (s *MongoStore) Posts() PostRepository { return s.posts }

func (s *MongoStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if !s.transactions {
		return fn(ctx, s.users, s.posts)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.users, s.posts)
	})
	return err
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	if err := s.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := s.posts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}
	return nil
}
