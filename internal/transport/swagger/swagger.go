package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// OpenAPI spec is served at the root by the router
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
