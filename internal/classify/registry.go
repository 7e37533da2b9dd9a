package classify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry holds the profiles available to presentation contexts.
type Registry struct {
	profiles map[string]Profile
	def      string
}

// NewRegistry returns a registry with the built-in presets and def as default.
func NewRegistry(def string) (*Registry, error) {
	r := &Registry{profiles: map[string]Profile{}}
	r.profiles[Standard.Name] = Standard
	r.profiles[Strict.Name] = Strict
	if def == "" {
		def = Standard.Name
	}
	if _, ok := r.profiles[def]; !ok {
		return nil, fmt.Errorf("unknown default profile %q", def)
	}
	r.def = def
	return r, nil
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.profiles[p.Name] = p
	return nil
}

// Lookup returns the named profile. An empty name selects the default.
func (r *Registry) Lookup(name string) (Profile, bool) {
	if name == "" {
		name = r.def
	}
	p, ok := r.profiles[name]
	return p, ok
}

func (r *Registry) Default() Profile { return r.profiles[r.def] }

// SetDefault changes the profile used when none is named.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("unknown default profile %q", name)
	}
	r.def = name
	return nil
}

// Names lists the registered profiles, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type profilesFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles decodes a YAML document of the form
//
//	profiles:
//	  - name: release
//	    buckets: [{min: 98, class: ship, description: Ready}]
//	    floor: {class: hold, description: Needs review}
//
// An empty document yields no profiles.
func LoadProfiles(r io.Reader) ([]Profile, error) {
	var f profilesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	for i := range f.Profiles {
		if err := f.Profiles[i].Validate(); err != nil {
			return nil, err
		}
	}
	return f.Profiles, nil
}

// RegisterFile loads profiles from path into the registry.
func (r *Registry) RegisterFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	profiles, err := LoadProfiles(fh)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
