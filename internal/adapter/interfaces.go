package adapter

import (
	"net/http"

	"github.com/Cyclone1070/beachai/internal/tool"
)

// Adapter is a tool backed by one external data source.
type Adapter interface {
	tool.Invoker

	// Spec returns the registry entry for the tool, with the adapter
	// itself as its Invoker.
	Spec() tool.Spec
}

// httpDoer is the part of *http.Client the adapters use.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
