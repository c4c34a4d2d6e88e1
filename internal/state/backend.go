package state

import (
	"context"
	"log"
	"time"
)

const connectTimeout = 3 * time.Second

// SelectBackend picks the storage backend once at process startup: Redis at
// redisURL when reachable, otherwise the in-process fallback for the
// remainder of the process lifetime. There is no switching at runtime.
func SelectBackend(redisURL string) Store {
	if redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		rs, err := NewRedisStore(ctx, redisURL)
		if err == nil {
			log.Printf("redis store initialized: %s", redisURL)
			return rs
		}
		log.Printf("redis unavailable (%v), falling back to in-memory store", err)
	}

	log.Println("using in-memory store (data will not persist)")
	return NewInMemoryStore()
}
