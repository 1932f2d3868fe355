package ports

import (
	"github.com/mikey/spam-scanner/internal/core"
)

// Presenter renders scan state changes. Calls are serialized by the
// coordinator, and a task's LOADING update always precedes its terminal one.
type Presenter interface {
	Present(update core.ScanUpdate)
}

// PresenterFunc adapts a function to the Presenter interface
type PresenterFunc func(update core.ScanUpdate)

// Present calls f(update)
func (f PresenterFunc) Present(update core.ScanUpdate) {
	f(update)
}

// MultiPresenter fans every update out to each presenter in order
type MultiPresenter []Presenter

// Present forwards update to every presenter
func (m MultiPresenter) Present(update core.ScanUpdate) {
	for _, p := range m {
		p.Present(update)
	}
}
