// Package events defines the evaluator's output contract: a tagged-union
// Event stream describing build-model mutations, and Diagnostic records for
// warnings/errors. Grounded on the discriminated-union Target pattern in
// pkg/types/types.go, adapted from target configuration payloads to
// evaluator-emitted build events.
package events

// Kind identifies an Event's payload shape.
type Kind string

const (
	KindTargetDeclare       Kind = "TARGET_DECLARE"
	KindTargetAddSource     Kind = "TARGET_ADD_SOURCE"
	KindTargetLinkLibraries Kind = "TARGET_LINK_LIBRARIES"
	KindTargetPropSet       Kind = "TARGET_PROP_SET"
	KindDirPush             Kind = "DIR_PUSH"
	KindDirPop              Kind = "DIR_POP"
	KindCustomCommandTarget Kind = "CUSTOM_COMMAND_TARGET"
	KindCustomCommandOutput Kind = "CUSTOM_COMMAND_OUTPUT"
	KindTestAdd             Kind = "TEST_ADD"
	KindTestingEnable       Kind = "TESTING_ENABLE"
	KindSetCacheEntry       Kind = "SET_CACHE_ENTRY"
	KindInstallRule         Kind = "INSTALL_RULE"
	KindCPackAddInstallType Kind = "CPACK_ADD_INSTALL_TYPE"
	KindCPackAddComponentGroup Kind = "CPACK_ADD_COMPONENT_GROUP"
	KindCPackAddComponent   Kind = "CPACK_ADD_COMPONENT"
)

// PropOp distinguishes TARGET_PROP_SET's write mode.
type PropOp string

const (
	PropOpSet          PropOp = "SET"
	PropOpAppend       PropOp = "APPEND"
	PropOpAppendString PropOp = "APPEND_STRING"
)

// Origin locates the command that produced an Event or Diagnostic.
type Origin struct {
	File string
	Line int
}

// Visibility mirrors a target usage requirement's scope.
type Visibility string

const (
	VisibilityPrivate   Visibility = "PRIVATE"
	VisibilityInterface Visibility = "INTERFACE"
	VisibilityPublic    Visibility = "PUBLIC"
)

// Event is a tagged union; exactly one of the typed payload fields is set,
// selected by Kind. Payloads are plain Go values copied by the evaluator at
// emission time, so there is no arena-lifetime concern on this side of the
// boundary (the event arena's role is played by ordinary Go ownership).
type Event struct {
	Kind   Kind
	Origin Origin

	TargetDeclare       *TargetDeclare       `json:",omitempty"`
	TargetAddSource     *TargetAddSource     `json:",omitempty"`
	TargetLinkLibraries *TargetLinkLibraries `json:",omitempty"`
	TargetPropSet       *TargetPropSet       `json:",omitempty"`
	DirPush             *DirPush             `json:",omitempty"`
	CustomCommandTarget *CustomCommandTarget `json:",omitempty"`
	CustomCommandOutput *CustomCommandOutput `json:",omitempty"`
	TestAdd             *TestAdd             `json:",omitempty"`
	TestingEnable       *TestingEnable       `json:",omitempty"`
	SetCacheEntry       *SetCacheEntry       `json:",omitempty"`
	InstallRule         *InstallRule         `json:",omitempty"`
	CPackAddInstallType *CPackAddInstallType `json:",omitempty"`
	CPackAddComponentGroup *CPackAddComponentGroup `json:",omitempty"`
	CPackAddComponent   *CPackAddComponent   `json:",omitempty"`
}

type TargetDeclare struct {
	Name string
	Kind string // EXECUTABLE, STATIC_LIB, SHARED_LIB, MODULE_LIB, OBJECT_LIB, INTERFACE_LIB, ALIAS, IMPORTED, UTILITY, CUSTOM
}

type TargetAddSource struct {
	Target string
	Source string
}

type TargetLinkLibraries struct {
	Target     string
	Visibility Visibility
	Libraries  []string
}

type TargetPropSet struct {
	Target    string
	Property  string
	Op        PropOp
	Value     string
	Condition string
}

type DirPush struct {
	Path string
}

type CustomCommandTarget struct {
	Target string
	Stage  string // PRE_BUILD, POST_BUILD
	Args   []string
}

type CustomCommandOutput struct {
	Outputs []string
	Args    []string
	Depends []string
}

type TestAdd struct {
	Name    string
	Command []string
}

type TestingEnable struct{}

type SetCacheEntry struct {
	Name      string
	Value     string
	Type      string
	Docstring string
	Forced    bool
}

type InstallRule struct {
	Kind        string // TARGET, FILE, PROGRAM, DIRECTORY
	Targets     []string
	Files       []string
	Destination string
	Component   string
}

type CPackAddInstallType struct {
	Name        string
	DisplayName string
}

type CPackAddComponentGroup struct {
	Name        string
	DisplayName string
}

type CPackAddComponent struct {
	Name        string
	Group       string
	DisplayName string
}

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
)

// Diagnostic is a structured, mechanically classified problem report.
type Diagnostic struct {
	Severity  Severity
	Component string
	Command   string
	Origin    Origin
	Cause     error
	Detail    string
	Code      string
	Class     string
}

func (d Diagnostic) Error() string {
	if d.Cause != nil {
		return d.Detail + ": " + d.Cause.Error()
	}
	return d.Detail
}

// Sink receives emitted Events and Diagnostics in command-source order.
type Sink interface {
	Emit(Event)
	Report(Diagnostic)
}

// Recorder is the in-memory Sink used by tests and by single-pass
// evaluation runs that hand the whole stream to a codegen consumer at once.
type Recorder struct {
	Events      []Event
	Diagnostics []Diagnostic
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Emit(e Event)        { r.Events = append(r.Events, e) }
func (r *Recorder) Report(d Diagnostic) { r.Diagnostics = append(r.Diagnostics, d) }

// HasErrors reports whether any recorded diagnostic is ERROR or FATAL.
func (r *Recorder) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError || d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}
