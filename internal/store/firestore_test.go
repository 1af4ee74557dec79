package store

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var firestoreProjectSeq atomic.Int64

// newTestFirestore gives each test its own emulator project so data does
// not leak between subtests.
func newTestFirestore(t *testing.T) Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	project := fmt.Sprintf("intel-test-%d-%d", os.Getpid(), firestoreProjectSeq.Add(1))
	s, err := NewFirestore(context.Background(), FirestoreConfig{ProjectID: project})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func TestFirestoreStore(t *testing.T) {
	storeTestSuite(t, newTestFirestore)
}
