package loadflag

import (
	"errors"
	"strings"
)

var ErrUnknownResourceType = errors.New("loadflag: unknown resource type")

// ResourceType names a syncable resource kind. The set is closed: adding a kind
// means adding a constant here and to allResourceTypes.
type ResourceType string

const (
	ResourceAssignedPrograms        ResourceType = "ASSIGNEDPROGRAMS"
	ResourcePrograms                ResourceType = "PROGRAMS"
	ResourceOptionSets              ResourceType = "OPTIONSETS"
	ResourceTrackedEntityAttributes ResourceType = "TRACKEDENTITYATTRIBUTES"
	ResourceConstants               ResourceType = "CONSTANTS"
	ResourceProgramRules            ResourceType = "PROGRAMRULES"
	ResourceProgramRuleVariables    ResourceType = "PROGRAMRULEVARIABLES"
	ResourceProgramRuleActions      ResourceType = "PROGRAMRULEACTIONS"
	ResourceRelationshipTypes       ResourceType = "RELATIONSHIPTYPES"
	ResourceOrganisationUnits       ResourceType = "ORGANISATIONUNITS"

	ResourceTrackedEntityInstances ResourceType = "TRACKEDENTITYINSTANCES"
	ResourceEnrollments            ResourceType = "ENROLLMENTS"
	ResourceEvents                 ResourceType = "EVENTS"

	ResourceUnionUsers ResourceType = "UNIONUSERS"
)

var allResourceTypes = []ResourceType{
	ResourceAssignedPrograms,
	ResourcePrograms,
	ResourceOptionSets,
	ResourceTrackedEntityAttributes,
	ResourceConstants,
	ResourceProgramRules,
	ResourceProgramRuleVariables,
	ResourceProgramRuleActions,
	ResourceRelationshipTypes,
	ResourceOrganisationUnits,
	ResourceTrackedEntityInstances,
	ResourceEnrollments,
	ResourceEvents,
	ResourceUnionUsers,
}

var metadataResourceTypes = []ResourceType{
	ResourceAssignedPrograms,
	ResourcePrograms,
	ResourceOptionSets,
	ResourceTrackedEntityAttributes,
	ResourceConstants,
	ResourceProgramRules,
	ResourceProgramRuleVariables,
	ResourceProgramRuleActions,
	ResourceRelationshipTypes,
	ResourceOrganisationUnits,
}

var trackerResourceTypes = []ResourceType{
	ResourceTrackedEntityInstances,
	ResourceEnrollments,
	ResourceEvents,
}

// AllResourceTypes returns every known resource type in declaration order.
func AllResourceTypes() []ResourceType {
	return append([]ResourceType(nil), allResourceTypes...)
}

// MetadataResourceTypes returns the kinds loaded by the metadata phase.
func MetadataResourceTypes() []ResourceType {
	return append([]ResourceType(nil), metadataResourceTypes...)
}

// TrackerResourceTypes returns the kinds loaded by the data-value phase.
func TrackerResourceTypes() []ResourceType {
	return append([]ResourceType(nil), trackerResourceTypes...)
}

func (rt ResourceType) Valid() bool {
	for _, known := range allResourceTypes {
		if rt == known {
			return true
		}
	}
	return false
}

func ParseResourceType(raw string) (ResourceType, error) {
	rt := ResourceType(strings.ToUpper(strings.TrimSpace(raw)))
	if !rt.Valid() {
		return "", ErrUnknownResourceType
	}
	return rt, nil
}
