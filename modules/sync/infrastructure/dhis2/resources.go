package dhis2

import (
	"github.com/icddrb/eregistry/pkg/loadflag"
)

// remoteTimeLayout is the timestamp form DHIS2 accepts in query filters.
const remoteTimeLayout = "2006-01-02T15:04:05.000"

type resource struct {
	Path       string
	Collection string
	IDField    string
	Fields     string
	// Incremental marks endpoints that accept a last-updated filter.
	Incremental bool
	// Klass is the deletedObjects class of tracker resources.
	Klass string
}

var metadataResources = map[loadflag.ResourceType]resource{
	loadflag.ResourceAssignedPrograms: {
		Path: "me", Collection: "programs", IDField: "id",
		Fields: "programs[id,displayName,programType]",
	},
	loadflag.ResourcePrograms: {
		Path: "programs", Collection: "programs", IDField: "id", Fields: "*", Incremental: true,
	},
	loadflag.ResourceOptionSets: {
		Path: "optionSets", Collection: "optionSets", IDField: "id",
		Fields: "*,options[*]", Incremental: true,
	},
	loadflag.ResourceTrackedEntityAttributes: {
		Path: "trackedEntityAttributes", Collection: "trackedEntityAttributes", IDField: "id",
		Fields: "*", Incremental: true,
	},
	loadflag.ResourceConstants: {
		Path: "constants", Collection: "constants", IDField: "id", Fields: "*", Incremental: true,
	},
	loadflag.ResourceProgramRules: {
		Path: "programRules", Collection: "programRules", IDField: "id", Fields: "*", Incremental: true,
	},
	loadflag.ResourceProgramRuleVariables: {
		Path: "programRuleVariables", Collection: "programRuleVariables", IDField: "id",
		Fields: "*", Incremental: true,
	},
	loadflag.ResourceProgramRuleActions: {
		Path: "programRuleActions", Collection: "programRuleActions", IDField: "id",
		Fields: "*", Incremental: true,
	},
	loadflag.ResourceRelationshipTypes: {
		Path: "relationshipTypes", Collection: "relationshipTypes", IDField: "id",
		Fields: "*", Incremental: true,
	},
	loadflag.ResourceOrganisationUnits: {
		Path: "me", Collection: "organisationUnits", IDField: "id",
		Fields: "organisationUnits[id,displayName,level,parent[id],programs[id]]",
	},
}

var trackerResources = map[loadflag.ResourceType]resource{
	loadflag.ResourceTrackedEntityInstances: {
		Path: "trackedEntityInstances", Collection: "trackedEntityInstances",
		IDField: "trackedEntityInstance", Fields: "*", Incremental: true,
		Klass: "TrackedEntityInstance",
	},
	loadflag.ResourceEnrollments: {
		Path: "enrollments", Collection: "enrollments", IDField: "enrollment",
		Fields: "*", Incremental: true, Klass: "ProgramInstance",
	},
	loadflag.ResourceEvents: {
		Path: "events", Collection: "events", IDField: "event",
		Fields: "*", Incremental: true, Klass: "ProgramStageInstance",
	},
}
