package tracing

// Span naming conventions. Command spans are named
// "<SpanPrefixCommand><command>", e.g. "command.add_item".
const (
	SpanPrefixCommand = "command."
	SpanStartup       = "coordinator.load"
	SpanReconcile     = "coordinator.reconcile"
)

// Attribute keys attached to spans. Kept as constants so trace queries
// stay stable across refactors.
const (
	AttrSessionID   = "session.id"
	AttrSessionName = "session.name"
	AttrStatus      = "session.status"
	AttrUserID      = "user.id"
	AttrProductID   = "item.product_id"
	AttrItemCount   = "session.item_count"
	AttrCommand     = "command.name"
	AttrSuccess     = "command.success"
	AttrRetry       = "command.retry_pending"
)
