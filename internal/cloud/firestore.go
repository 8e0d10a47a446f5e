// Package cloud mirrors the local item set into a per-user Firestore collection.
// Writes only: nothing is ever read back into the local store.
package cloud

import (
	"context"
	"fmt"

	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"
)

// DefaultDatabase is Firestore's default database id.
const DefaultDatabase = "(default)"

// Config selects the Firestore database to write to.
type Config struct {
	Project  string
	Database string
	// CredentialsFile is a service account JSON file. Empty uses application
	// default credentials.
	CredentialsFile string
	// Endpoint overrides the API endpoint, e.g. for the emulator. Requests to
	// an overridden endpoint are sent unauthenticated.
	Endpoint string
}

// Firestore commits write batches through the Firestore REST API.
type Firestore struct {
	client   *firestore.Service
	database string
}

// NewFirestore creates a Firestore client for cfg.
func NewFirestore(ctx context.Context, cfg Config) (*Firestore, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("firestore project required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}

	return &Firestore{
		client:   client,
		database: fmt.Sprintf("projects/%s/databases/%s", cfg.Project, cfg.Database),
	}, nil
}

// Database returns the database resource name.
func (f *Firestore) Database() string {
	return f.database
}

// Commit applies writes atomically: all of them or none.
func (f *Firestore) Commit(ctx context.Context, writes []*firestore.Write) error {
	_, err := f.client.Projects.Databases.Documents.
		Commit(f.database, &firestore.CommitRequest{Writes: writes}).
		Context(ctx).
		Do()
	return err
}
