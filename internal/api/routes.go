package api

import (
	"net/http"

	"github.com/JaimeStill/herbarium/pkg/openapi"
	"github.com/JaimeStill/herbarium/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
	spec []byte,
) {
	children := []routes.Group{domain.Plants.Handler().Routes()}
	children = append(children, domain.Images.Handler().Routes()...)
	children = append(children, routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/openapi.json", Handler: openapi.ServeSpec(spec)},
		},
	})

	routes.Register(mux, routes.Group{
		Middleware: []func(http.Handler) http.Handler{runtime.Metrics.Middleware()},
		Children:   children,
	})
}
