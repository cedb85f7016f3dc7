package routing

type RouteClass string

const (
	RouteClassOps         RouteClass = "ops"
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassWebsocket   RouteClass = "websocket"
)

const PathEvents = "/internal/sync/events"

// Classify derives the route class from the path alone, for paths that were
// never registered.
func Classify(path string) RouteClass {
	switch path {
	case "/health", "/healthz":
		return RouteClassOps
	case PathEvents:
		return RouteClassWebsocket
	default:
		return RouteClassInternalAPI
	}
}
