// Package clipboard writes one-time codes to the system clipboard and
// clears them again after a fixed interval — unless the user has
// copied something else in the meantime.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Clipboard is the consumed clipboard capability.
type Clipboard interface {
	Write(value string) error
	Read() (string, error)
}

// System is the real clipboard, backed by atotto/clipboard.
type System struct{}

// NewSystem returns the system clipboard.
func NewSystem() System {
	return System{}
}

func (System) Write(value string) error {
	return clipboard.WriteAll(value)
}

func (System) Read() (string, error) {
	return clipboard.ReadAll()
}
