package health

import "context"

// Pinger is any dependency discovery cannot serve without: the search index,
// the profile store and the optional tier cache.
type Pinger interface {
	Ping(ctx context.Context) error
}
