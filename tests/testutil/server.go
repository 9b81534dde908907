package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/99designs/keyring"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/auth"
	"github.com/nhle/tracker-sync/internal/credential"
	"github.com/nhle/tracker-sync/internal/devserver"
	"github.com/nhle/tracker-sync/internal/session"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDevServer starts a development API server over a fresh in-memory
// store and returns the API base URL. The server is closed when the test
// completes.
func NewDevServer(t *testing.T, opts ...devserver.Option) string {
	t.Helper()

	opts = append([]devserver.Option{
		devserver.WithBcryptCost(bcrypt.MinCost),
		devserver.WithLogger(DiscardLogger()),
	}, opts...)

	srv := httptest.NewServer(devserver.New(NewTestStore(t), opts...))
	t.Cleanup(srv.Close)

	return srv.URL + "/api"
}

// NewSession returns an anonymous session backed by an in-memory keyring.
func NewSession(t *testing.T) *session.Session {
	t.Helper()

	s, err := session.New(credential.New(keyring.NewArrayKeyring(nil), "token"),
		session.WithLogger(DiscardLogger()))
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return s
}

// SignUp registers email on the server at baseURL and returns a client
// whose session holds the new token.
func SignUp(t *testing.T, baseURL, email string) (*api.Client, *session.Session) {
	t.Helper()

	sess := NewSession(t)
	client := api.NewClient(baseURL, sess, api.WithLogger(DiscardLogger()))

	_, loggedIn, err := auth.NewService(client, sess, DiscardLogger()).
		Register(context.Background(), email, "secret", "secret")
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	if !loggedIn {
		t.Fatalf("registering %s: server returned no token", email)
	}
	return client, sess
}
