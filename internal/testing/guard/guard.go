// Package guard forces test mode for any binary that imports it.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("REGISTRY_TEST_MODE") == "" {
			_ = os.Setenv("REGISTRY_TEST_MODE", "1")
		}
	})
}
