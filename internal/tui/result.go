package tui

// status is the lifecycle of one remote request as seen by a view.
type status int

const (
	statusIdle status = iota
	statusPending
	statusOk
	statusErr
)

// result replaces separate loading/error flags: a view's request is idle,
// in flight, done with a value, or failed with a reason.
type result[T any] struct {
	status status
	value  T
	err    error
}

func pendingResult[T any]() result[T] {
	return result[T]{status: statusPending}
}

func okResult[T any](v T) result[T] {
	return result[T]{status: statusOk, value: v}
}

func errResult[T any](err error) result[T] {
	return result[T]{status: statusErr, err: err}
}

func (r result[T]) pending() bool { return r.status == statusPending }

// ok returns the value when the request succeeded.
func (r result[T]) ok() (T, bool) {
	return r.value, r.status == statusOk
}

func (r result[T]) failed() bool { return r.status == statusErr }
