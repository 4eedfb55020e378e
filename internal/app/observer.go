package app

import "github.com/nodepath81/diffservd/internal/scheduler"

// fanoutObserver dispatches every scheduler.Event to a fixed list of
// observers, so the trace store and the control server can both watch
// the same scheduler without either knowing about the other.
type fanoutObserver struct {
	observers []scheduler.Observer
}

func newFanoutObserver(observers ...scheduler.Observer) *fanoutObserver {
	nonNil := make([]scheduler.Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			nonNil = append(nonNil, o)
		}
	}
	return &fanoutObserver{observers: nonNil}
}

func (f *fanoutObserver) Observe(evt scheduler.Event) {
	for _, o := range f.observers {
		o.Observe(evt)
	}
}
