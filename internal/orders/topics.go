package orders

const (
	TopicOrderPlaced   = "order.placed"
	TopicOrderRemoved  = "order.removed"
	TopicStockDepleted = "inventory.stock.depleted"
	TopicStockRestored = "inventory.stock.restored"
)

// Order topics are keyed by order_id, stock topics by product_id, supaya
// urutan event per entity tetap terjaga dalam satu partisi.
func PartitionKey(id string) []byte { return []byte(id) }
