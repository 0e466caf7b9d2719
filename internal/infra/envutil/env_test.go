package envutil

import (
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	base := []string{"A=1", "TOKEN=old", "B=2", "TOKEN=older"}
	got := Merge(base, map[string]string{"TOKEN": "new", "C": "3"})

	assert.Equal(t, []string{"A=1", "B=2", "C=3", "TOKEN=new"}, got)
	assert.Equal(t, []string{"A=1", "TOKEN=old", "B=2", "TOKEN=older"}, base)
}

func TestLookupReturnsLast(t *testing.T) {
	env := []string{"PATH=/bin", "A=1", "PATH=/usr/bin"}
	assert.Equal(t, "/usr/bin", Lookup(env, "PATH"))
	assert.Empty(t, Lookup(env, "MISSING"))
	assert.Empty(t, Lookup(env, ""))
}

func TestSetReplacesAll(t *testing.T) {
	env := []string{"A=1", "PATH=/bin", "B=2", "PATH=/usr/bin"}
	assert.Equal(t, []string{"A=1", "B=2", "PATH=/opt/bin"}, Set(env, "PATH", "/opt/bin"))
}

func TestMergePATHDeduplicates(t *testing.T) {
	sep := string(os.PathListSeparator)
	primary := strings.Join([]string{"/opt/bin", "/usr/bin", ""}, sep)
	fallback := strings.Join([]string{"/usr/bin", "/bin"}, sep)

	assert.Equal(t, strings.Join([]string{"/opt/bin", "/usr/bin", "/bin"}, sep), mergePATH(primary, fallback))
	assert.Empty(t, mergePATH("", ""))
}

func TestPatchPATH_SkippedWithTerminal(t *testing.T) {
	env := []string{"PATH=/usr/bin", "TERM=xterm-256color"}
	assert.Equal(t, env, PatchPATH(env))
}

func TestPatchPATH_NoopOffDarwin(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("login shell PATH is consulted on darwin")
	}
	env := []string{"PATH=/usr/bin"}
	assert.Equal(t, env, PatchPATH(env))
}
