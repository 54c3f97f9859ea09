package mongo

import (
	"context"

	"fitmarket/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoTxManager implements repository.TxManager on top of MongoDB sessions.
type mongoTxManager struct {
	client *mongo.Client
}

// NewMongoTxManager creates a transaction manager bound to the client.
func NewMongoTxManager(client *mongo.Client) repository.TxManager {
	return &mongoTxManager{client: client}
}

// WithTransaction runs fn inside a session transaction. The SessionContext is
// passed to fn as a plain context.Context; repository methods invoked with it
// are bound to the transaction, so an error from fn aborts every write.
func (m *mongoTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
