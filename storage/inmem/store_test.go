package inmemstore

import (
	"testing"

	"github.com/trezcool/masomo-resources/storage"
	testutil "github.com/trezcool/masomo-resources/tests"
)

func TestStore(t *testing.T) {
	testutil.TestStore(t, func(*testing.T) storage.Store { return NewStore() })
}
