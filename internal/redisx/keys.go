package redisx

import "time"

const (
	// Product detail cache: product:{product_id} -> product JSON incl. approved reviews
	KeyProduct = "product:%d"

	// Order cache: order:{order_id} -> order JSON incl. items
	KeyOrder = "order:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLProductCache = 5 * time.Minute
	TTLOrderCache   = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
