package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	tasksCollection         = "todos"
	completionsCollection   = "completions"
	metricsCollection       = "daily_metrics"
	conversationsCollection = "conversations"
	profileCollection       = "profile"
	configCollection        = "operator_config"

	profileDocID   = "default"
	ratelimitDocID = "ratelimit"
	corsDocID      = "cors"
)

// Store persists every entity as a Firestore document
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping reads a single document to confirm the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(configCollection).Doc(ratelimitDocID).Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
