package models

// NotPersisted is the ID carried by a Site or Healthcheck that has not
// been written to the store yet. The store assigns the real ID.
const NotPersisted int64 = -1

// ErrorMessageMaxLen caps the free-text error message persisted with a
// healthcheck so a single failure cannot bloat the store.
const ErrorMessageMaxLen = 300

// MatchStatus is the outcome of matching a response body against a
// site's content pattern. Stored as an integer column.
type MatchStatus int

const (
	// MatchStatusFail means a pattern was required but not found.
	MatchStatusFail MatchStatus = iota
	// MatchStatusOK means the pattern was found in the response body.
	MatchStatusOK
	// MatchStatusNA means the site has no pattern configured.
	MatchStatusNA
)

func (m MatchStatus) String() string {
	switch m {
	case MatchStatusFail:
		return "fail"
	case MatchStatusOK:
		return "ok"
	case MatchStatusNA:
		return "n/a"
	default:
		return "unknown"
	}
}

// Site is one monitored target. Immutable within a run once persisted.
type Site struct {
	ID              int64
	URL             string
	IntervalSeconds int
	Regex           string
}

// Healthcheck is the persisted record of one probe attempt. Append-only.
type Healthcheck struct {
	ID               int64
	WebsiteID        int64
	RequestTimestamp float64
	ResponseTime     float64
	HTTPStatusCode   int
	MatchStatus      MatchStatus
	ErrorMessage     string
}

// TruncateError bounds msg to ErrorMessageMaxLen characters.
func TruncateError(msg string) string {
	if len(msg) > ErrorMessageMaxLen {
		return msg[:ErrorMessageMaxLen]
	}
	return msg
}
