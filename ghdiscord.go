// Package ghdiscord receives Github webhooks and relays issue comments to Discord.
package ghdiscord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/github"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mtraver/gaelog"
	"github.com/octo/ghdiscord/actions/notify"
	"github.com/octo/ghdiscord/event"
	"go.opencensus.io/plugin/ochttp"
)

// Handler returns the HTTP handler serving the webhook endpoint.
func Handler() http.Handler {
	return gaelog.Wrap(&ochttp.Handler{Handler: newRouter()})
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/github", handler).Methods(http.MethodPost)
	r.HandleFunc("/_ah/health", healthCheckHandler).Methods(http.MethodGet)
	return r
}

func handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := contextHandler(ctx, w, r); err != nil {
		gaelog.Errorf(ctx, "contextHandler: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func contextHandler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		gaelog.Errorf(ctx, "reading payload: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	id := github.DeliveryID(r)
	if id == "" {
		id = uuid.NewString()
	}

	whType := github.WebHookType(r)
	gaelog.Debugf(ctx, "delivery %s: received %q event (%d bytes)", id, whType, len(payload))

	if whType == "ping" {
		return processPing(ctx, w)
	}

	if !event.Supported().Contains(whType) {
		gaelog.Debugf(ctx, "delivery %s: unimplemented event type %q", id, whType)
		return processOK(w)
	}

	e, err := github.ParseWebHook(whType, payload)
	if err != nil {
		// Only a delivery that would have been relayed is rejected.
		if action, ok := peekAction(payload); !ok || !notify.TriggerOn.Contains(action) {
			gaelog.Debugf(ctx, "delivery %s: ignoring undecodable %q event (action %q): %v", id, whType, action, err)
			return processOK(w)
		}

		gaelog.Errorf(ctx, "delivery %s: ParseWebHook: %v", id, err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return nil
	}

	if err := event.Handle(ctx, e); err != nil {
		return fmt.Errorf("delivery %s: %w", id, err)
	}

	return processOK(w)
}

// peekAction returns the "action" field of a payload that may not decode
// into the typed event.
func peekAction(payload []byte) (string, bool) {
	var p struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", false
	}
	return p.Action, true
}

func processOK(w http.ResponseWriter) error {
	fmt.Fprintln(w, "webhook received")
	return nil
}

func processPing(ctx context.Context, w http.ResponseWriter) error {
	gaelog.Infof(ctx, "received ping")
	fmt.Fprintln(w, "pong")
	return nil
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "ok")
}
