package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"replctl/internal/output"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var swiftEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// swiftString quotes s as a Swift string literal. Non-ASCII text is kept
// as is.
func swiftString(s string) string {
	return `"` + swiftEscaper.Replace(s) + `"`
}

// Variables is the registry of named bindings the REPL reported. Result
// slots such as $R1 are not kept.
type Variables struct {
	s  *Session
	mu sync.RWMutex
	m  map[string]output.Binding
}

func (v *Variables) update(found map[string]output.Binding) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, b := range found {
		if output.IsResultSlot(name) {
			continue
		}
		v.m[name] = b
	}
}

// Lookup returns the last binding reported for name.
func (v *Variables) Lookup(name string) (output.Binding, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	b, ok := v.m[name]
	return b, ok
}

// Names returns the registered names, sorted.
func (v *Variables) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.m))
	for n := range v.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every binding sorted by name.
func (v *Variables) All() []output.Binding {
	names := v.Names()
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]output.Binding, 0, len(names))
	for _, n := range names {
		out = append(out, v.m[n])
	}
	return out
}

// Get asks the REPL to encode the variable as JSON and decodes it into dst.
// The type must conform to Encodable.
func (v *Variables) Get(ctx context.Context, name string, dst any) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	path, err := tempPath()
	if err != nil {
		return err
	}
	defer os.Remove(path)

	prompt := fmt.Sprintf("try _serializeObject(%s, to: %s)", name, swiftString(path))
	if _, err := v.s.Run(ctx, prompt, RunOptions{}); err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Set declares name with the given Swift type and a JSON-encoded value.
// The type must conform to Decodable.
func (v *Variables) Set(ctx context.Context, name, typ string, value any) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path, err := tempPath()
	if err != nil {
		return err
	}
	defer os.Remove(path)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	prompt := fmt.Sprintf("var %s: %s = try _deserializeObject(%s)", name, typ, swiftString(path))
	res, err := v.s.Run(ctx, prompt, RunOptions{})
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if _, ok := res.Variables[name]; !ok {
		v.mu.Lock()
		v.m[name] = output.Binding{Name: name, Type: typ, Value: string(data)}
		v.mu.Unlock()
	}
	return nil
}

func tempPath() (string, error) {
	f, err := os.CreateTemp("", "replctl-*.json")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_ = f.Close()
	return name, nil
}
