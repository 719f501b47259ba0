// Package module is the contract every ringroster service module satisfies
package module

import (
	phttp "ringroster/internal/platform/net/http"
)

// Module mounts its routes and exposes its ports
// it lives apart from modkit so service packages that export port types do not import the builder
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
