package ports

import (
	"context"
	"errors"

	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

var ErrDropdownNotFound = errors.New("dropdown_not_found")

// DropdownStore persists the union/field-worker lookup. GetDropdown returns
// ErrDropdownNotFound until the first successful union sync.
type DropdownStore interface {
	GetDropdown(ctx context.Context) (types.DropdownModel, error)
	PutDropdown(ctx context.Context, model types.DropdownModel) error
}
