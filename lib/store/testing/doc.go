// Package testing provides a standardised test suite for implementations of
// the store.IPropStore interface.
//
// The suite checks typed access, empty value deletion, directories, path
// validation, iteration, permission filtering, flags, lock ownership,
// gender mirroring, RemoveAll, environment search, CopyAll and, when the
// fixture can evict objects, that every kind of value survives a round trip
// through the backing file.
//
// Example usage:
//
//	factory := func(t *testing.T) *storetesting.Fixture {
//		database := db.New(db.Options{})
//		t.Cleanup(func() { database.Close() })
//		return &storetesting.Fixture{
//			Store:     database.Store(),
//			NewObject: func(player bool, loc prop.DBRef) prop.DBRef { ... },
//		}
//	}
//
//	storetesting.RunPropStoreTests(t, "MemoryDB", factory)
package testing
