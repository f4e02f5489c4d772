package chat

// Phase of a collection fetch.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failure
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "idle"
}

// FetchState is the tagged result of the latest fetch of one collection.
// Data survives Loading and Failure so views can keep showing the last
// good payload next to a spinner or an error.
type FetchState[T any] struct {
	Phase Phase
	Data  T
	Err   error
}

// Loading reports whether a fetch is in flight.
func (s FetchState[T]) Loading() bool {
	return s.Phase == Loading
}

// Failed reports whether the latest fetch failed.
func (s FetchState[T]) Failed() bool {
	return s.Phase == Failure
}

func (s FetchState[T]) loading() FetchState[T] {
	return FetchState[T]{Phase: Loading, Data: s.Data}
}

func (s FetchState[T]) succeed(data T) FetchState[T] {
	return FetchState[T]{Phase: Success, Data: data}
}

func (s FetchState[T]) fail(err error) FetchState[T] {
	return FetchState[T]{Phase: Failure, Data: s.Data, Err: err}
}
