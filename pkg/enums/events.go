package enums

// EventType names a domain event carried through the outbox.
type EventType string

const (
	EventOrderSubmitted EventType = "order.submitted"
	EventOrderPaid      EventType = "order.paid"
	EventOrderFailed    EventType = "order.failed"
	EventCartCleared    EventType = "cart.cleared"
)

// AggregateType names the entity an outbox event belongs to.
type AggregateType string

const (
	AggregateOrder AggregateType = "order"
	AggregateCart  AggregateType = "cart"
)
