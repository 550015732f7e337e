package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// CheckTool finds the first of t.Binaries in PATH and asks it for a version.
func CheckTool(ctx context.Context, t ToolInfo) CheckResult {
	for _, bin := range t.Binaries {
		path, err := lookPath(bin)
		if err != nil {
			continue
		}
		for _, args := range t.VersionArgs {
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			out, err := runCmd(cctx, path, args...)
			cancel()
			if err != nil || strings.TrimSpace(out) == "" {
				continue
			}
			ver := ParseVersion(out)
			if ver == "" {
				ver = strings.Split(strings.TrimSpace(out), "\n")[0]
			}
			res := CheckResult{Tool: t, Installed: true, Path: path, Version: ver, Source: fmt.Sprintf("%s %s", bin, strings.Join(args, " "))}
			if t.MinVersion != "" && VersionLess(ver, t.MinVersion) {
				res.Outdated = true
				res.Err = fmt.Sprintf("version %s is older than %s", ver, t.MinVersion)
			}
			return res
		}
		// Found binary but no version output; still consider installed
		return CheckResult{Tool: t, Installed: true, Path: path, Source: bin}
	}
	return CheckResult{Tool: t, Err: fmt.Sprintf("none of %s found in PATH", strings.Join(t.Binaries, ", "))}
}

// CheckAll probes every registered tool.
func CheckAll(ctx context.Context) []CheckResult {
	out := make([]CheckResult, 0, len(Tools))
	for _, t := range Tools {
		out = append(out, CheckTool(ctx, t))
	}
	return out
}

// CheckSwift probes the Swift toolchain.
func CheckSwift(ctx context.Context) CheckResult {
	return CheckTool(ctx, Tools[0])
}
