// Package migrations holds the application's migration units. Files in
// this package are written by `arecord make:migration` and register
// themselves at init time.
package migrations

import (
	"slices"
	"strings"
	"sync"

	"github.com/syssam/arecord/dialect/sql/schema"
)

var (
	mu    sync.Mutex
	units []schema.Migration
)

func register(m schema.Migration) {
	mu.Lock()
	defer mu.Unlock()
	units = append(units, m)
}

// All returns the registered units sorted by name.
func All() []schema.Migration {
	mu.Lock()
	defer mu.Unlock()
	out := slices.Clone(units)
	slices.SortFunc(out, func(a, b schema.Migration) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}
