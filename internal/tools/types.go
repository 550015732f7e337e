package tools

// ToolID names an external program replctl depends on.
type ToolID string

const (
	ToolSwift ToolID = "swift"
	ToolLLDB  ToolID = "lldb"
)

type ToolInfo struct {
	ID          ToolID
	DisplayName string
	Binaries    []string // candidate binary names in PATH
	VersionArgs [][]string
	// MinVersion is the oldest version known to work, empty for any.
	MinVersion string
	Required   bool
}

// CheckResult is the outcome of probing one tool.
type CheckResult struct {
	Tool      ToolInfo `json:"-"`
	Installed bool     `json:"installed"`
	Path      string   `json:"path,omitempty"`
	Version   string   `json:"version,omitempty"`
	Source    string   `json:"source,omitempty"` // command that produced the version
	Outdated  bool     `json:"outdated,omitempty"`
	Err       string   `json:"error,omitempty"`
}

// OK reports whether the tool is usable.
func (r CheckResult) OK() bool {
	return r.Installed && !r.Outdated
}
