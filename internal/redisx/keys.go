package redisx

import "time"

const (
	// Revoked session: session:revoked:{jti} -> "1", lives until the token would expire
	KeySessionRevoked = "session:revoked:%s"

	// Idempotent order placement: idem:order:place:{member_id}:{key} -> "pending" | order_id
	KeyIdemOrderPlace = "idem:order:place:%d:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

const IdemPending = "pending"

var (
	// TTLIdemPending bounds how long a crashed or unrecorded placement can
	// hold its idempotency key.
	TTLIdemPending = time.Minute
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
