// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sqltest provides isolated database/sql connections for tests.
// Every test gets its own database so tests can run in parallel.
package sqltest

import (
	"database/sql"
	"fmt"
	"hash/fnv"
	"testing"
)

// DBFactory is a function type that creates a new database connection for
// testing purposes. It takes a testing.TB interface to allow for test
// failure when the database connection cannot be created, add cleanup logic
// and create a unique and isolated database for each test case.
type DBFactory func(t testing.TB) *sql.DB

// deterministicTestID generates a deterministic identifier based on the test
// name. This ensures that Go test caching works properly by avoiding random
// generations for the database name.
func deterministicTestID(t testing.TB) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Name()))
	return fmt.Sprintf("%x", h.Sum64())
}
