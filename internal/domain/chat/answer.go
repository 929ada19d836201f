// Package chat holds the result of answering a single query.
package chat

import "github.com/kailas-cloud/hybridchat/internal/domain/route"

// Path identifies which producer generated the answer text.
type Path string

// Answer path constants.
const (
	// PathAgent means the web agent produced the answer.
	PathAgent Path = "agent"
	// PathDirect means the query was routed to a direct model answer.
	PathDirect Path = "direct"
	// PathFallback means the web agent failed and the direct answer was used instead.
	PathFallback Path = "fallback"
)

// Answer is the outcome of one query.
type Answer struct {
	Text        string
	Decision    route.Decision
	Path        Path
	Iterations  int   // agent iterations used; zero on the direct path
	FallbackErr error // agent failure that caused PathFallback
}

// Route returns the route the query was classified into.
func (a Answer) Route() route.Route { return a.Decision.Route }

// Empty reports whether the answer carries no text.
func (a Answer) Empty() bool { return a.Text == "" }
