//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package forumapi

import "fmt"

// FetchErrorKind classifies why a request to the forum API failed.
// ENUM(network,status,decode,malformed,not_found)
type FetchErrorKind string

// FetchError is a classified forum API failure. All kinds are transient from the
// poll loop's point of view: the forum is skipped for the cycle and retried.
type FetchError struct {
	Kind       FetchErrorKind
	Operation  string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("forum api %s %s: HTTP %d", e.Operation, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("forum api %s %s: %v", e.Operation, e.Kind, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
