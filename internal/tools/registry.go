package tools

// Tools lists what `replctl doctor` probes. The REPL is driven through
// `swift repl`, which needs the LLDB that ships with the toolchain.
var Tools = []ToolInfo{
	{
		ID:          ToolSwift,
		DisplayName: "Swift toolchain",
		Binaries:    []string{"swift"},
		VersionArgs: [][]string{{"--version"}, {"-version"}},
		MinVersion:  "5.5.0",
		Required:    true,
	},
	{
		ID:          ToolLLDB,
		DisplayName: "LLDB",
		Binaries:    []string{"lldb"},
		VersionArgs: [][]string{{"--version"}},
	},
}
