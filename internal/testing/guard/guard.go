// Package guard forces test mode before any runtime side effects can fire.
// Import it for side effects from packages whose tests must never touch
// external services.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ORGWARD_TEST_MODE") == "" {
			_ = os.Setenv("ORGWARD_TEST_MODE", "1")
		}
	})
}
