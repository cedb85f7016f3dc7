package authz

const (
	RoleSyncAdmin  = "sync-admin"
	RoleSyncViewer = "sync-viewer"
	RoleAnonymous  = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
)

const (
	ObjectSyncDropdown = "sync.dropdown"
	ObjectSyncFlags    = "sync.flags"
	ObjectSyncRun      = "sync.run"
	ObjectSyncEvents   = "sync.events"
)
