package orders

import "strconv"

const (
	TopicOrderPlaced    = "shop.order.placed"
	TopicOrderCancelled = "shop.order.cancelled"
)

// Partition key = order id, so every event of one order stays in order.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
