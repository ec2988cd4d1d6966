// Package event dispatches parsed Github webhook events to the handlers
// registered by the actions.
package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bitbucket.org/creachadair/stringset"
	"github.com/google/go-github/github"
	"go.uber.org/multierr"
)

// Webhook types, as sent in the X-GitHub-Event header.
const (
	TypeIssueComment = "issue_comment"
)

// IssueCommentFunc handles an "issue_comment" event.
type IssueCommentFunc func(context.Context, *github.IssueCommentEvent) error

var (
	mu                   sync.RWMutex
	issueCommentHandlers = map[string]IssueCommentFunc{}
)

// IssueCommentHandler registers hndl under name. It is meant to be called from
// init() and panics if name is already taken.
func IssueCommentHandler(name string, hndl IssueCommentFunc) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := issueCommentHandlers[name]; ok {
		panic(fmt.Sprintf("event: issue comment handler %q registered twice", name))
	}
	issueCommentHandlers[name] = hndl
}

// Supported returns the webhook types with at least one registered handler.
func Supported() stringset.Set {
	mu.RLock()
	defer mu.RUnlock()

	s := stringset.New()
	if len(issueCommentHandlers) != 0 {
		s.Add(TypeIssueComment)
	}
	return s
}

// Handle calls all handlers registered for the type of e. Handlers run
// concurrently; their errors are combined. Events of other types are ignored.
func Handle(ctx context.Context, e interface{}) error {
	switch e := e.(type) {
	case *github.IssueCommentEvent:
		mu.RLock()
		hndls := make(map[string]func(context.Context) error, len(issueCommentHandlers))
		for name, hndl := range issueCommentHandlers {
			hndl := hndl
			hndls[name] = func(ctx context.Context) error { return hndl(ctx, e) }
		}
		mu.RUnlock()

		return run(ctx, hndls)
	}

	return nil
}

func run(ctx context.Context, hndls map[string]func(context.Context) error) error {
	var (
		wg = &sync.WaitGroup{}
		ch = make(chan error)
	)

	for name, hndl := range hndls {
		wg.Add(1)
		go func(name string, hndl func(context.Context) error) {
			defer wg.Done()
			if err := hndl(ctx); err != nil {
				ch <- fmt.Errorf("%s: %w", name, err)
			}
		}(name, hndl)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var errs []error
	for err := range ch {
		errs = append(errs, err)
	}

	// Map iteration order is random; keep the combined message stable.
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Error() < errs[j].Error()
	})

	return multierr.Combine(errs...)
}
