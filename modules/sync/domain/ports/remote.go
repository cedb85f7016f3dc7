package ports

import (
	"context"

	orgtypes "github.com/icddrb/eregistry/modules/orgunit/domain/types"
	"github.com/icddrb/eregistry/modules/sync/domain/types"
)

// OrgUserFetcher returns the flat org unit list with the users of every unit.
type OrgUserFetcher interface {
	FetchOrgsAndUsers(ctx context.Context) ([]orgtypes.OrgRecord, error)
}

type MetadataLoader interface {
	LoadMetadata(ctx context.Context, strategy types.Strategy) error
	MetadataLoaded(ctx context.Context) (bool, error)
}

type TrackerLoader interface {
	LoadTrackerData(ctx context.Context, strategy types.Strategy) error
	TrackerDataLoaded(ctx context.Context) (bool, error)
}

// DeletedReconciler removes locally stored records the server reports as deleted.
type DeletedReconciler interface {
	ReconcileDeleted(ctx context.Context) error
}

type DropdownWriter interface {
	PutDropdown(ctx context.Context, model orgtypes.DropdownModel) error
}
