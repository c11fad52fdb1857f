package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/saltcipher"
)

// setupTestDB opens a named shared in-memory SQLite database with the schema
// applied. The name is derived from t.Name() so parallel tests stay isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as DSN query parameters.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", url.PathEscape(t.Name()), pragmas)

	db, err := newDB(context.Background(), dsn, ":memory:")
	require.NoError(t, err, "open test db")

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// fakeClock returns a time source that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func setupTestRepo(t *testing.T) *CredentialRepo {
	t.Helper()

	c, err := saltcipher.New("test passphrase", saltcipher.ModeGCM)
	require.NoError(t, err)

	return NewCredentialRepo(setupTestDB(t), c).WithClock(fakeClock(time.Unix(1_700_000_000, 0)))
}
