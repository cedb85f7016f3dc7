package types

import (
	"strings"
	"time"
)

// Levels of the union hierarchy as numbered by the registry.
const (
	LevelUnion    = 5
	LevelSubUnit  = 6
	LevelWardUnit = 7
)

type UserRecord struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

// HasRole reports an exact role-name match.
func (u UserRecord) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

type OrgRecord struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Level    int          `json:"level"`
	ParentID string       `json:"parentId"`
	Users    []UserRecord `json:"users"`
}

// NormalizeOrgID is the comparison form used when matching parent references.
func NormalizeOrgID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// HierarchyIndex maps each root org id to the root record followed by every
// descendant attached to it. Roots keep input order.
type HierarchyIndex struct {
	rootLevel int
	roots     []string
	buckets   map[string][]OrgRecord
}

func NewHierarchyIndex(rootLevel int) HierarchyIndex {
	return HierarchyIndex{rootLevel: rootLevel, buckets: make(map[string][]OrgRecord)}
}

// RootLevel is the level whose records own the buckets.
func (h HierarchyIndex) RootLevel() int {
	return h.rootLevel
}

// AddRoot opens a bucket for root. It returns false when the id is already a root.
func (h *HierarchyIndex) AddRoot(root OrgRecord) bool {
	if h.buckets == nil {
		h.buckets = make(map[string][]OrgRecord)
	}
	if _, ok := h.buckets[root.ID]; ok {
		return false
	}
	h.roots = append(h.roots, root.ID)
	h.buckets[root.ID] = []OrgRecord{root}
	return true
}

// Attach appends rec to an existing root bucket.
func (h *HierarchyIndex) Attach(rootID string, rec OrgRecord) bool {
	bucket, ok := h.buckets[rootID]
	if !ok {
		return false
	}
	h.buckets[rootID] = append(bucket, rec)
	return true
}

func (h HierarchyIndex) Roots() []string {
	return append([]string(nil), h.roots...)
}

func (h HierarchyIndex) Bucket(rootID string) ([]OrgRecord, bool) {
	b, ok := h.buckets[rootID]
	if !ok {
		return nil, false
	}
	return append([]OrgRecord(nil), b...), true
}

func (h HierarchyIndex) Len() int {
	return len(h.roots)
}

type DropdownUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// DropdownModel is the persisted union/field-worker lookup read by UI collaborators.
type DropdownModel struct {
	Orgs      map[string]string         `json:"orgs"`
	Users     map[string][]DropdownUser `json:"users"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func NewDropdownModel() DropdownModel {
	return DropdownModel{
		Orgs:  make(map[string]string),
		Users: make(map[string][]DropdownUser),
	}
}

func (m *DropdownModel) AddOrg(id string, label string) {
	if m.Orgs == nil {
		m.Orgs = make(map[string]string)
	}
	m.Orgs[id] = label
}

// AddUsers appends users under orgID, skipping ids already listed for that org.
func (m *DropdownModel) AddUsers(orgID string, users []DropdownUser) {
	if len(users) == 0 {
		return
	}
	if m.Users == nil {
		m.Users = make(map[string][]DropdownUser)
	}
	existing := m.Users[orgID]
	seen := make(map[string]struct{}, len(existing)+len(users))
	for _, u := range existing {
		seen[u.ID] = struct{}{}
	}
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		existing = append(existing, u)
	}
	m.Users[orgID] = existing
}

func (m DropdownModel) UsersFor(orgID string) []DropdownUser {
	return append([]DropdownUser(nil), m.Users[orgID]...)
}
