package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app, its auth client and the storage
// bucket used for post images.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Bucket      *storage.BucketHandle
}

// InitFirebase initializes the Firebase application from a service account
// file. bucket names the storage bucket; when empty the project's default
// bucket is used.
func InitFirebase(ctx context.Context, credentialsPath, bucket string, log zerolog.Logger) (*App, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	var conf *firebase.Config
	if bucket != "" {
		conf = &firebase.Config{StorageBucket: bucket}
	}

	firebaseApp, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}
	handle, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("error opening firebase storage bucket: %w", err)
	}

	log.Info().Str("bucket", bucket).Msg("Firebase app, auth client and storage bucket initialized.")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Bucket: handle}, nil
}
