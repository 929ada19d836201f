// Package route models the per-query web/ai routing decision.
package route

// Route is the response path chosen for a query.
type Route string

// Route constants.
const (
	Web Route = "web"
	AI  Route = "ai"
)

// Decision is the outcome of classifying a query.
// Defaulted is true when the classifier failed and the route fell back to AI.
type Decision struct {
	Route     Route
	Defaulted bool
	Raw       string // model answer the route was derived from
	Err       error  // classifier failure when Defaulted
}

// Classified returns a successful decision.
func Classified(r Route, raw string) Decision {
	return Decision{Route: r, Raw: raw}
}

// Defaulted returns the fail-safe decision used when classification failed.
func Defaulted(err error) Decision {
	return Decision{Route: AI, Defaulted: true, Err: err}
}
