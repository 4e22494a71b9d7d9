package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// ItemsPath is the path of the items collection.
	ItemsPath = "/items"

	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)
