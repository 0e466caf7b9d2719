// Package envutil builds environments for stdio server processes.
package envutil

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	skipPathPatchEnv = "DCL_SKIP_PATH_PATCH"
	termEnv          = "TERM"
	shellEnv         = "SHELL"
	pathEnv          = "PATH"
)

// Merge returns base with overrides applied in key order. An override
// replaces every existing entry for its key.
func Merge(base []string, overrides map[string]string) []string {
	out := append([]string(nil), base...)
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out = Set(out, key, overrides[key])
	}
	return out
}

// Lookup returns the last value of key in env.
func Lookup(env []string, key string) string {
	if key == "" {
		return ""
	}
	prefix := key + "="
	var value string
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			value = strings.TrimPrefix(entry, prefix)
		}
	}
	return value
}

// Set drops every entry for key and appends key=value.
func Set(env []string, key, value string) []string {
	if key == "" {
		return env
	}
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		out = append(out, entry)
	}
	return append(out, prefix+value)
}

type pathCacheEntry struct {
	path string
	err  error
}

var loginPathCache sync.Map

// PatchPATH prepends the login shell PATH on macOS when dcl was started
// without a terminal, as desktop MCP clients do. Commands like npx or uvx
// are otherwise not found.
func PatchPATH(env []string) []string {
	if runtime.GOOS != "darwin" {
		return env
	}
	if strings.TrimSpace(Lookup(env, skipPathPatchEnv)) != "" {
		return env
	}
	if strings.TrimSpace(Lookup(env, termEnv)) != "" {
		return env
	}
	shellPath := strings.TrimSpace(Lookup(env, shellEnv))
	if shellPath == "" {
		shellPath = "/bin/zsh"
	}
	loginPath, err := loginShellPATH(shellPath)
	if err != nil || strings.TrimSpace(loginPath) == "" {
		return env
	}
	current := Lookup(env, pathEnv)
	merged := mergePATH(loginPath, current)
	if merged == "" || merged == current {
		return env
	}
	return Set(env, pathEnv, merged)
}

func loginShellPATH(shellPath string) (string, error) {
	if cached, ok := loginPathCache.Load(shellPath); ok {
		entry := cached.(pathCacheEntry)
		return entry.path, entry.err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, shellPath, "-lc", "echo $PATH")
	cmd.Env = append(os.Environ(), "LANG=C", "LC_ALL=C")
	output, err := cmd.Output()
	path := strings.TrimSpace(string(output))
	loginPathCache.Store(shellPath, pathCacheEntry{path: path, err: err})
	return path, err
}

// mergePATH joins both lists, primary first, dropping duplicates and blanks.
func mergePATH(primary, fallback string) string {
	separator := string(os.PathListSeparator)
	seen := map[string]struct{}{}
	var out []string
	for _, list := range []string{primary, fallback} {
		for _, entry := range strings.Split(list, separator) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if _, ok := seen[entry]; ok {
				continue
			}
			seen[entry] = struct{}{}
			out = append(out, entry)
		}
	}
	return strings.Join(out, separator)
}
