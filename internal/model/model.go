// Package model implements the build model: targets, configuration-
// conditional property lists, install rules, the test registry, and CPack
// metadata, plus cache/environment maps and dependency validation.
//
// Grounded on the discriminated-union Target pattern and the per-field
// validation style in pkg/types/types.go and pkg/validation/target.go,
// adapted from file-watch target configuration to CMake build targets.
package model

import "fmt"

// Kind enumerates the build-target kinds a target may declare.
type Kind string

const (
	KindExecutable    Kind = "EXECUTABLE"
	KindStaticLib     Kind = "STATIC_LIB"
	KindSharedLib     Kind = "SHARED_LIB"
	KindModuleLib     Kind = "MODULE_LIB"
	KindObjectLib     Kind = "OBJECT_LIB"
	KindInterfaceLib  Kind = "INTERFACE_LIB"
	KindAlias         Kind = "ALIAS"
	KindImported      Kind = "IMPORTED"
	KindUtility       Kind = "UTILITY"
	KindCustom        Kind = "CUSTOM"
)

// Visibility mirrors the PRIVATE/INTERFACE/PUBLIC usage requirement scope.
type Visibility string

const (
	VisibilityPrivate   Visibility = "PRIVATE"
	VisibilityInterface Visibility = "INTERFACE"
	VisibilityPublic    Visibility = "PUBLIC"
)

// ConditionalEntry is one configuration-conditional list entry: a value
// gated by a condition string (typically a CONFIG-matching generator
// expression or a plain "CMAKE_BUILD_TYPE STREQUAL Debug" predicate) and a
// usage-requirement visibility.
type ConditionalEntry struct {
	Condition  string
	Visibility Visibility
	Value      string
}

// CustomCommand captures add_custom_command's TARGET and OUTPUT forms.
type CustomCommand struct {
	Stage            string // PRE_BUILD, PRE_LINK, POST_BUILD, or "" for OUTPUT form
	Outputs          []string
	Command          []string
	Depends          []string
	Byproducts       []string
	WorkingDirectory string
	Comment          string
	VerbatimArgs     bool
	UsesTerminal     bool
	CommandExpandLists bool
	DependsExplicitOnly bool
	Codegen          bool
	JobPool          string
	JobServerAware   bool
	Depfile          string
	ImplicitDepends  []string
	MainDependency   string
}

// Target is one build-model entity.
type Target struct {
	Name string
	Kind Kind

	// Flat property bag: arbitrary user-set keys plus well-known ones
	// (OUTPUT_NAME, PREFIX, SUFFIX, EXCLUDE_FROM_ALL, WIN32_EXECUTABLE,
	// MACOSX_BUNDLE, IMPORTED, SYSTEM, ...).
	Properties map[string]string

	Sources []string

	CompileDefinitions []ConditionalEntry
	CompileOptions     []ConditionalEntry
	IncludeDirectories []ConditionalEntry
	LinkOptions        []ConditionalEntry
	LinkDirectories    []ConditionalEntry
	LinkLibraries      []ConditionalEntry

	// Interface lists are consulted when this target is a transitive
	// dependency of another target, rather than built directly.
	InterfaceCompileDefinitions []ConditionalEntry
	InterfaceCompileOptions     []ConditionalEntry
	InterfaceIncludeDirectories []ConditionalEntry
	InterfaceLinkOptions        []ConditionalEntry
	InterfaceLinkLibraries      []ConditionalEntry

	PreBuildCommands  []CustomCommand
	PostBuildCommands []CustomCommand
	OutputCommands    []CustomCommand

	Dependencies         []string
	InterfaceDependencies []string
	ObjectDependencies    []string

	AliasOf string // set when Kind == KindAlias
}

func newTarget(name string, kind Kind) *Target {
	return &Target{Name: name, Kind: kind, Properties: map[string]string{}}
}

func kindsCompatible(existing, requested Kind) bool {
	if existing == requested {
		return true
	}
	// ALIAS declarations never conflict with the underlying target kind;
	// they are resolved separately during dependency collection.
	return existing == KindAlias || requested == KindAlias
}

// InstallRule records one install() invocation.
type InstallRule struct {
	Kind        string // TARGET, FILE, PROGRAM, DIRECTORY
	Targets     []string
	Files       []string
	Destination string
	Component   string
}

// TestCase is one registered ctest test.
type TestCase struct {
	Name       string
	Command    []string
	Properties map[string]string
}

// CacheEntry is one cache-variable record.
type CacheEntry struct {
	Value     string
	Type      string
	Docstring string
	Forced    bool
}

// CPackInstallType, CPackComponentGroup, CPackComponent dedupe by Name.
type CPackInstallType struct{ Name, DisplayName string }
type CPackComponentGroup struct{ Name, DisplayName string }
type CPackComponent struct{ Name, Group, DisplayName string }

// PlatformFlags carries the host classification the evaluator exposes as
// CMAKE_HOST_* / WIN32 / UNIX / APPLE variables.
type PlatformFlags struct {
	IsWindows bool
	IsUnix    bool
	IsApple   bool
	IsLinux   bool
}

// ProjectMeta is populated by the project() command.
type ProjectMeta struct {
	Name        string
	Version     string
	Description string
	Languages   []string
}

// Model owns every build-model entity for one evaluation run.
type Model struct {
	targets      []*Target
	targetIndex  map[string]int

	CacheVariables map[string]*CacheEntry
	Environment    map[string]string

	InstallRules []InstallRule
	Tests        []TestCase
	TestingEnabled bool

	CPackInstallTypes    []CPackInstallType
	CPackComponentGroups []CPackComponentGroup
	CPackComponents      []CPackComponent

	Project  ProjectMeta
	Platform PlatformFlags

	DefaultConfiguration string

	// GenexWarningCache is keyed by unsupported generator-expression
	// operator. New initializes it empty; nothing in this module reads or
	// writes it afterward, so repeat diagnostics are not suppressed.
	GenexWarningCache map[string]bool

	// SourceProperties holds set_source_files_properties() writes, keyed
	// by source path then property name; no target owns these directly
	// since one source file can be shared across several targets.
	SourceProperties map[string]map[string]string

	// DirectoryProperties holds set_directory_properties() writes,
	// analogous to Target.Properties but directory-scoped rather than
	// target-scoped.
	DirectoryProperties map[string]string

	// WatchedVariables records variable_watch() registrations. Nothing is
	// emitted when a watched variable later changes, and no user-supplied
	// watch command is run.
	WatchedVariables map[string]bool
}

// New returns an empty build model ready for mutation.
func New() *Model {
	return &Model{
		targetIndex:         map[string]int{},
		CacheVariables:      map[string]*CacheEntry{},
		Environment:         map[string]string{},
		GenexWarningCache:   map[string]bool{},
		SourceProperties:    map[string]map[string]string{},
		DirectoryProperties: map[string]string{},
		WatchedVariables:    map[string]bool{},
	}
}

// SetSourceProperty writes one set_source_files_properties() entry for path.
func (m *Model) SetSourceProperty(path, key, value string) {
	props, ok := m.SourceProperties[path]
	if !ok {
		props = map[string]string{}
		m.SourceProperties[path] = props
	}
	props[key] = value
}

// SourceProperty reads a property written by SetSourceProperty.
func (m *Model) SourceProperty(path, key string) (string, bool) {
	props, ok := m.SourceProperties[path]
	if !ok {
		return "", false
	}
	v, ok := props[key]
	return v, ok
}

// WatchVariable registers name under variable_watch(); IsWatched reports it.
func (m *Model) WatchVariable(name string) { m.WatchedVariables[name] = true }

// IsWatched reports whether name was registered via WatchVariable.
func (m *Model) IsWatched(name string) bool { return m.WatchedVariables[name] }

// AddTarget declares a target. Redeclaring an existing name with an
// incompatible kind returns an error; ALIAS is special-cased as compatible
// with anything.
func (m *Model) AddTarget(name string, kind Kind) (*Target, error) {
	if idx, ok := m.targetIndex[name]; ok {
		existing := m.targets[idx]
		if !kindsCompatible(existing.Kind, kind) {
			return nil, fmt.Errorf("target %q already declared as %s, cannot redeclare as %s", name, existing.Kind, kind)
		}
		return existing, nil
	}
	t := newTarget(name, kind)
	m.targetIndex[name] = len(m.targets)
	m.targets = append(m.targets, t)
	return t, nil
}

// Target looks up a declared target by name.
func (m *Model) Target(name string) (*Target, bool) {
	idx, ok := m.targetIndex[name]
	if !ok {
		return nil, false
	}
	return m.targets[idx], true
}

// Targets returns all declared targets in declaration order.
func (m *Model) Targets() []*Target { return m.targets }

// AddSource appends path to target's sources iff not already present.
func (t *Target) AddSource(path string) {
	for _, s := range t.Sources {
		if s == path {
			return
		}
	}
	t.Sources = append(t.Sources, path)
}

// AddDependency appends dep iff not already present.
func (t *Target) AddDependency(dep string) {
	for _, d := range t.Dependencies {
		if d == dep {
			return
		}
	}
	t.Dependencies = append(t.Dependencies, dep)
}

// AddInterfaceDependency appends dep iff not already present.
func (t *Target) AddInterfaceDependency(dep string) {
	for _, d := range t.InterfaceDependencies {
		if d == dep {
			return
		}
	}
	t.InterfaceDependencies = append(t.InterfaceDependencies, dep)
}

// smartPropertyKeys maps well-known target property keys onto the
// conditional list they also feed, alongside the flat property bag.
var smartPropertyKeys = map[string]func(t *Target, entry ConditionalEntry){
	"COMPILE_DEFINITIONS": func(t *Target, e ConditionalEntry) { t.CompileDefinitions = append(t.CompileDefinitions, e) },
	"LINK_OPTIONS":         func(t *Target, e ConditionalEntry) { t.LinkOptions = append(t.LinkOptions, e) },
	"LINK_DIRECTORIES":     func(t *Target, e ConditionalEntry) { t.LinkDirectories = append(t.LinkDirectories, e) },
	"INCLUDE_DIRECTORIES":  func(t *Target, e ConditionalEntry) { t.IncludeDirectories = append(t.IncludeDirectories, e) },
	"COMPILE_OPTIONS":      func(t *Target, e ConditionalEntry) { t.CompileOptions = append(t.CompileOptions, e) },
}

// SetProperty sets a flat property-bag entry, overwriting any prior value.
func (t *Target) SetProperty(key, value string) {
	t.Properties[key] = value
}

// SetPropertySmart behaves like SetProperty, but for well-known keys (and
// their _<CONFIG> suffixed variants) also feeds the matching conditional
// list so later genex/config-aware reads see the value.
func (t *Target) SetPropertySmart(key, value, condition string, visibility Visibility) {
	t.Properties[key] = value
	base := key
	for suffix := range configSuffixes(key) {
		base = suffix
		break
	}
	if fn, ok := smartPropertyKeys[base]; ok {
		fn(t, ConditionalEntry{Condition: condition, Visibility: visibility, Value: value})
	}
}

// configSuffixes strips a trailing _<CONFIG> suffix like
// COMPILE_DEFINITIONS_DEBUG -> COMPILE_DEFINITIONS; yields nothing if key
// has no recognized base.
func configSuffixes(key string) map[string]bool {
	for base := range smartPropertyKeys {
		if key == base {
			return map[string]bool{base: true}
		}
		if len(key) > len(base)+1 && key[:len(base)+1] == base+"_" {
			return map[string]bool{base: true}
		}
	}
	return nil
}

// GetPropertyComputed returns a property value, supporting the read-only
// synthetic keys NAME and TYPE in addition to the flat property bag.
func (t *Target) GetPropertyComputed(key string) (string, bool) {
	switch key {
	case "NAME":
		return t.Name, true
	case "TYPE":
		return string(t.Kind), true
	}
	v, ok := t.Properties[key]
	return v, ok
}

type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// ValidateDependencies checks that every referenced dependency exists and
// that the dependency graph is acyclic (3-color DFS).
func (m *Model) ValidateDependencies() error {
	for _, t := range m.targets {
		for _, dep := range t.Dependencies {
			if _, ok := m.targetIndex[dep]; !ok {
				return fmt.Errorf("target %q depends on undeclared target %q", t.Name, dep)
			}
		}
	}
	colors := make(map[string]dfsColor, len(m.targets))
	var visit func(name string) error
	visit = func(name string) error {
		idx, ok := m.targetIndex[name]
		if !ok {
			return nil
		}
		t := m.targets[idx]
		colors[name] = gray
		for _, dep := range t.Dependencies {
			switch colors[dep] {
			case gray:
				return fmt.Errorf("dependency cycle detected at target %q", dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		colors[name] = black
		return nil
	}
	for _, t := range m.targets {
		if colors[t.Name] == white {
			if err := visit(t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopologicalSort returns targets ordered so dependencies precede
// dependents, or nil if the graph has a cycle.
func (m *Model) TopologicalSort() []*Target {
	colors := make(map[string]dfsColor, len(m.targets))
	var order []*Target
	cyclic := false
	var visit func(name string)
	visit = func(name string) {
		if cyclic {
			return
		}
		idx, ok := m.targetIndex[name]
		if !ok {
			return
		}
		switch colors[name] {
		case black:
			return
		case gray:
			cyclic = true
			return
		}
		colors[name] = gray
		t := m.targets[idx]
		for _, dep := range t.Dependencies {
			visit(dep)
		}
		colors[name] = black
		order = append(order, t)
	}
	for _, t := range m.targets {
		visit(t.Name)
	}
	if cyclic {
		return nil
	}
	return order
}

// SetCacheEntry writes or overwrites a cache variable, honoring the
// force-vs-first-write semantics of cache(SET ... FORCE).
func (m *Model) SetCacheEntry(name, value, typ, docstring string, force bool) {
	if _, ok := m.CacheVariables[name]; ok && !force {
		// Non-forced writes to an already-set cache entry are ignored by
		// cmake's normal set(CACHE) semantics when invoked a second time
		// without FORCE, mirroring real cache persistence across configure
		// runs; this evaluator treats the first SetCacheEntry call as that
		// persisted state.
		return
	}
	m.CacheVariables[name] = &CacheEntry{Value: value, Type: typ, Docstring: docstring, Forced: force}
}

// HasCacheEntry reports whether name is a known cache variable.
func (m *Model) HasCacheEntry(name string) bool {
	_, ok := m.CacheVariables[name]
	return ok
}

// UnsetCacheEntry removes name from the cache map.
func (m *Model) UnsetCacheEntry(name string) { delete(m.CacheVariables, name) }

// EnsureInstallType dedupes cpack_add_install_type by name.
func (m *Model) EnsureInstallType(name, displayName string) {
	for i, it := range m.CPackInstallTypes {
		if it.Name == name {
			m.CPackInstallTypes[i].DisplayName = displayName
			return
		}
	}
	m.CPackInstallTypes = append(m.CPackInstallTypes, CPackInstallType{Name: name, DisplayName: displayName})
}

// EnsureComponentGroup dedupes cpack_add_component_group by name.
func (m *Model) EnsureComponentGroup(name, displayName string) {
	for i, g := range m.CPackComponentGroups {
		if g.Name == name {
			m.CPackComponentGroups[i].DisplayName = displayName
			return
		}
	}
	m.CPackComponentGroups = append(m.CPackComponentGroups, CPackComponentGroup{Name: name, DisplayName: displayName})
}

// EnsureComponent dedupes cpack_add_component by name.
func (m *Model) EnsureComponent(name, group, displayName string) {
	for i, c := range m.CPackComponents {
		if c.Name == name {
			m.CPackComponents[i].Group = group
			m.CPackComponents[i].DisplayName = displayName
			return
		}
	}
	m.CPackComponents = append(m.CPackComponents, CPackComponent{Name: name, Group: group, DisplayName: displayName})
}

// AddTest registers a ctest test, guarding against duplicate names the way
// add_test(NAME) does.
func (m *Model) AddTest(tc TestCase) error {
	for _, existing := range m.Tests {
		if existing.Name == tc.Name {
			return fmt.Errorf("test %q already registered", tc.Name)
		}
	}
	m.Tests = append(m.Tests, tc)
	return nil
}
