// Package routes declares route groups and registers them on a ServeMux.
package routes

import (
	"net/http"
	"slices"

	"github.com/JaimeStill/herbarium/pkg/middleware"
)

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware applies to every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware middleware.Chain
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

// Patterns lists the method-qualified patterns the groups would register.
func Patterns(groups ...Group) []string {
	var patterns []string
	var walk func(prefix string, g Group)
	walk = func(prefix string, g Group) {
		full := prefix + g.Prefix
		for _, route := range g.Routes {
			patterns = append(patterns, route.Method+" "+full+route.Pattern)
		}
		for _, child := range g.Children {
			walk(full, child)
		}
	}
	for _, g := range groups {
		walk("", g)
	}
	return patterns
}

func registerGroup(
	mux *http.ServeMux,
	parentPrefix string,
	parentMiddleware middleware.Chain,
	group Group,
) {
	fullPrefix := parentPrefix + group.Prefix
	stack := append(slices.Clone(parentMiddleware), group.Middleware...)

	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.Handle(pattern, stack.Then(route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}

