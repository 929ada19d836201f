package hybridchat

// Route values reported in Answer.Route.
const (
	RouteWeb = "web"
	RouteAI  = "ai"
)

// Path values reported in Answer.Path.
const (
	PathAgent    = "agent"
	PathDirect   = "direct"
	PathFallback = "fallback"
)

// Answer is the reply to a chat query.
type Answer struct {
	Text  string
	Route string // "web" or "ai"
	Path  string // "agent", "direct" or "fallback"
}

// FellBack reports whether a web-routed query was answered directly after the agent failed.
func (a Answer) FellBack() bool { return a.Path == PathFallback }
