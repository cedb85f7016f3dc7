package syncconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/icddrb/eregistry/pkg/loadflag"
	"gopkg.in/yaml.v3"
)

const defaultProfilePath = "config/sync/profile.yaml"

// Profile tunes the union dropdown and selects which resources are loaded on
// a fresh install.
type Profile struct {
	Version          int      `yaml:"version"`
	RootLevel        int      `yaml:"root_level"`
	Depth            int      `yaml:"depth"`
	FieldWorkerRoles []string `yaml:"field_worker_roles"`
	UserFilterExpr   string   `yaml:"user_filter_expr"`
	EnabledResources []string `yaml:"enabled_resources"`
}

func DefaultProfile() Profile {
	return Profile{
		Version:   1,
		RootLevel: 5,
		Depth:     3,
		EnabledResources: []string{
			string(loadflag.ResourceAssignedPrograms),
			string(loadflag.ResourcePrograms),
			string(loadflag.ResourceOptionSets),
			string(loadflag.ResourceTrackedEntityAttributes),
			string(loadflag.ResourceConstants),
			string(loadflag.ResourceProgramRules),
			string(loadflag.ResourceProgramRuleVariables),
			string(loadflag.ResourceProgramRuleActions),
			string(loadflag.ResourceRelationshipTypes),
			string(loadflag.ResourceTrackedEntityInstances),
			string(loadflag.ResourceEnrollments),
			string(loadflag.ResourceEvents),
			string(loadflag.ResourceUnionUsers),
		},
	}
}

func ParseProfileYAML(b []byte) (Profile, error) {
	p := DefaultProfile()
	p.Version = 0
	p.EnabledResources = nil
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, err
	}
	if p.Version != 1 {
		return Profile{}, errors.New("sync profile: unsupported version")
	}
	if p.RootLevel <= 0 {
		return Profile{}, errors.New("sync profile: root_level must be positive")
	}
	if p.Depth <= 0 {
		return Profile{}, errors.New("sync profile: depth must be positive")
	}
	if p.EnabledResources == nil {
		p.EnabledResources = DefaultProfile().EnabledResources
	}
	if _, err := p.Resources(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Resources parses EnabledResources.
func (p Profile) Resources() ([]loadflag.ResourceType, error) {
	out := make([]loadflag.ResourceType, 0, len(p.EnabledResources))
	for _, raw := range p.EnabledResources {
		rt, err := loadflag.ParseResourceType(raw)
		if err != nil {
			return nil, fmt.Errorf("sync profile: enabled_resources %q: %w", raw, err)
		}
		out = append(out, rt)
	}
	return out, nil
}

// LoadProfile reads the profile at path, or at SYNC_PROFILE_PATH / the default
// location when path is empty. A missing default file yields DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		path = os.Getenv("SYNC_PROFILE_PATH")
	}
	if path == "" {
		p, ok := defaultProfileFile()
		if !ok {
			return DefaultProfile(), nil
		}
		path = p
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfileYAML(b)
}

func defaultProfileFile() (string, bool) {
	path := defaultProfilePath
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		path = filepath.Join("..", path)
	}
	return "", false
}
