// Package config provides access to run-time configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/kelseyhightower/envconfig"
	"github.com/octo/retry"
)

type environment struct {
	WebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	ProjectID  string `envconfig:"DATASTORE_PROJECT_ID"`
}

type credentials struct {
	WebhookURL string `datastore:",noindex"`
}

// loadTimeout bounds the retried credentials lookup.
const loadTimeout = 30 * time.Second

var (
	credsMu     sync.Mutex
	cachedCreds *credentials
)

func loadEnv() (environment, error) {
	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return environment{}, fmt.Errorf("envconfig.Process(): %w", err)
	}
	return env, nil
}

func loadCreds(ctx context.Context, projectID string) (*credentials, error) {
	credsMu.Lock()
	defer credsMu.Unlock()

	if cachedCreds != nil {
		return cachedCreds, nil
	}

	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("datastore.NewClient(%q): %w", projectID, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	var c credentials
	err = fetch(ctx, func(ctx context.Context) error {
		return client.Get(ctx, datastore.NameKey("credentials", "singleton", nil), &c)
	})
	if err != nil {
		return nil, fmt.Errorf("datastore.Get(credentials/singleton): %w", err)
	}

	cachedCreds = &c
	return cachedCreds, nil
}

// fetch calls get until it succeeds. A missing entity is permanent and is
// returned without retrying.
func fetch(ctx context.Context, get func(context.Context) error) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		err := get(ctx)
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return retry.Abort(err)
		}
		return err
	})
}

// WebhookURL returns the Discord incoming webhook URL notifications are posted to.
//
// DISCORD_WEBHOOK_URL takes precedence. If it is unset and DATASTORE_PROJECT_ID
// names a project, the URL stored in that project's "credentials" singleton is
// used. An unconfigured URL is not an error; the empty string is returned.
func WebhookURL(ctx context.Context) (string, error) {
	env, err := loadEnv()
	if err != nil {
		return "", err
	}

	if env.WebhookURL != "" || env.ProjectID == "" {
		return env.WebhookURL, nil
	}

	c, err := loadCreds(ctx, env.ProjectID)
	if err != nil {
		return "", err
	}

	return c.WebhookURL, nil
}
