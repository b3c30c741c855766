package action

// Bounds describes how an action reply has been bounded relative to the
// full underlying result set, letting a reply carry truncation metadata
// without the IntentionExecutor inspecting reply-schema-specific fields
// (supplemented from the original framework's result-set actions, which cap
// rows returned from world-query services; not present in the distilled
// spec's core data model).
type Bounds struct {
	Returned       int
	Total          *int
	Truncated      bool
	RefinementHint string
}

// BoundedReply is implemented by action reply payload types that expose
// boundedness metadata directly, so a plan task can decide whether to issue
// a follow-up query with a narrower filter.
type BoundedReply interface {
	Bounds() Bounds
}
