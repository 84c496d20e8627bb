package observed

import (
	"github.com/go-logr/logr"

	"github.com/KumKeeHyun/observed/state"
)

// Mirror keeps the latest value published by p in store under key. Only the
// latest value is kept. Write failures are logged and mirroring goes on.
// Cancel the returned Subscription to stop.
func Mirror[V any](p Publisher[V], store state.KeyValueStore[string, V], key string, logger logr.Logger) Subscription {
	logger = logger.WithValues("key", key)
	return Sink(p, func(v V) {
		if err := store.Put(key, v); err != nil {
			logger.Error(err, "failed to mirror value")
		}
	})
}
