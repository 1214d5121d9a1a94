package mapping

// Kind is the terminal state a player reaches after a single fetch attempt.
type Kind int

const (
	KindNotFound Kind = iota
	KindCached
	KindFetched
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindCached:
		return "cached"
	case KindFetched:
		return "fetched"
	case KindFallback:
		return "fallback"
	default:
		return "not-found"
	}
}

// Result is the outcome of fetching one player. Value is empty for KindNotFound,
// Cause is set for KindFallback and KindNotFound when a failure led there.
type Result struct {
	Kind  Kind
	Value string
	Cause error
}

func Cached(value string) Result {
	return Result{Kind: KindCached, Value: value}
}

func Fetched(value string) Result {
	return Result{Kind: KindFetched, Value: value}
}

func Fallback(value string, cause error) Result {
	return Result{Kind: KindFallback, Value: value, Cause: cause}
}

func NotFound(cause error) Result {
	return Result{Kind: KindNotFound, Cause: cause}
}

// Found reports whether the result came from the real source, either the
// local cache or a fresh fetch.
func (r Result) Found() bool {
	return r.Kind == KindCached || r.Kind == KindFetched
}

// HasValue reports whether the result should produce an entry in a mapping.
func (r Result) HasValue() bool {
	return r.Kind != KindNotFound
}
