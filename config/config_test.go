package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/datastore"
)

func TestWebhookURL(t *testing.T) {
	cases := []struct {
		env  string
		want string
	}{
		{"https://discord.com/api/webhooks/1/abc", "https://discord.com/api/webhooks/1/abc"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Setenv("DISCORD_WEBHOOK_URL", tc.env)
		t.Setenv("DATASTORE_PROJECT_ID", "")

		got, err := WebhookURL(context.Background())
		if err != nil {
			t.Fatalf("WebhookURL() = %v", err)
		}
		if got != tc.want {
			t.Errorf("WebhookURL() = %q, want %q", got, tc.want)
		}
	}
}

func TestWebhookURLPrefersEnvironment(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://example.com/hook")
	// Never contacted: the environment wins.
	t.Setenv("DATASTORE_PROJECT_ID", "unreachable-project")

	got, err := WebhookURL(context.Background())
	if err != nil {
		t.Fatalf("WebhookURL() = %v", err)
	}
	if want := "https://example.com/hook"; got != want {
		t.Errorf("WebhookURL() = %q, want %q", got, want)
	}
}

func TestWebhookURLCachedCredentials(t *testing.T) {
	credsMu.Lock()
	cachedCreds = &credentials{WebhookURL: "https://example.com/from-datastore"}
	credsMu.Unlock()
	defer func() {
		credsMu.Lock()
		cachedCreds = nil
		credsMu.Unlock()
	}()

	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("DATASTORE_PROJECT_ID", "test-project")

	got, err := WebhookURL(context.Background())
	if err != nil {
		t.Fatalf("WebhookURL() = %v", err)
	}
	if want := "https://example.com/from-datastore"; got != want {
		t.Errorf("WebhookURL() = %q, want %q", got, want)
	}
}

func TestFetch(t *testing.T) {
	errTransient := errors.New("transient")

	cases := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success", []error{nil}, 1, false},
		{"missing entity", []error{datastore.ErrNoSuchEntity}, 1, true},
		{"transient failure", []error{errTransient, nil}, 2, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var calls int
			err := fetch(ctx, func(context.Context) error {
				i := calls
				if i >= len(tc.errs) {
					i = len(tc.errs) - 1
				}
				calls++
				return tc.errs[i]
			})

			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Errorf("fetch() = %v, want error: %v", err, tc.wantErr)
			}
			if calls != tc.wantCalls {
				t.Errorf("get called %d times, want %d", calls, tc.wantCalls)
			}
		})
	}
}
