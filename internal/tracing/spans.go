package tracing

// Span attribute keys.
const (
	AttrOperation    = "book.operation"
	AttrPersonName   = "person.name"
	AttrPersonCount  = "book.person_count"
	AttrPinnedCount  = "book.pinned_count"
	AttrModule       = "index.module"
	AttrGroup        = "index.group"
	AttrUpdatedCount = "cascade.updated_count"
	AttrStoreBackend = "store.backend"
	AttrSnapshotID   = "store.snapshot_id"

	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span name prefixes.
const (
	SpanPrefixBook  = "book."
	SpanPrefixStore = "store."
)

// Event names.
const (
	EventSnapshotSaved    = "snapshot.saved"
	EventRollback         = "snapshot.rollback"
	EventIndexRebuilt     = "index.rebuilt"
	EventSubscribersAlert = "subscribers.notified"
	EventCascadeApplied   = "cascade.applied"
)
