package database

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"tourhub/pkg/config"
	"tourhub/pkg/logger"
)

// FirebaseCredentials prefers inline service account JSON (production) and
// falls back to a file path (local development). With neither set the SDK
// uses application default credentials.
func FirebaseCredentials(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))}, nil
	}
	if cfg.FirebaseServiceAccountPath != "" {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); err != nil {
			return nil, fmt.Errorf("service account file %s: %w", cfg.FirebaseServiceAccountPath, err)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)}, nil
	}
	logger.Info("Using application default credentials for Firebase")
	return nil, nil
}

func NewFirebaseApp(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*fbapp.App, error) {
	return fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
}

func NewFirestoreClient(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*firestore.Client, error) {
	return firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
}
