// Copyright © 2025 The gnls authors

package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gntools/gnls/parser"
)

func parseVirtual(src string) *parser.Block {
	return parser.Parse([]byte(src), "test.gn")
}

func TestWalkScopeLevel_FlattensTransparentBlocks(t *testing.T) {
	block := parseVirtual(`
a = 1
if (cond) {
  b = 2
} else {
  c = 3
}
declare_args() {
  d = 4
}
foreach(x, list) {
  e = 5
}
source_set("t") {
  hidden = 6
}
`)
	var names []string
	var declared []string
	walkScopeLevel(block, func(stmt parser.Statement, inDeclareArgs bool) {
		a, ok := stmt.(*parser.Assignment)
		if !ok {
			return
		}
		name := a.LValue.Primary().Name
		names = append(names, name)
		if inDeclareArgs {
			declared = append(declared, name)
		}
	})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names,
		"condition branches, declare_args and foreach flatten; target blocks do not")
	assert.Equal(t, []string{"d"}, declared)
}

func TestWalkScopeLevel_DeepNesting(t *testing.T) {
	// A pathological chain of nested conditionals must not recurse.
	var sb strings.Builder
	const depth = 20000
	for i := 0; i < depth; i++ {
		sb.WriteString("if (c) {\n")
	}
	sb.WriteString("innermost = 1\n")
	for i := 0; i < depth; i++ {
		sb.WriteString("}\n")
	}

	var found bool
	walkScopeLevel(parseVirtual(sb.String()), func(stmt parser.Statement, _ bool) {
		if a, ok := stmt.(*parser.Assignment); ok && a.LValue.Primary().Name == "innermost" {
			found = true
		}
	})
	assert.True(t, found)
}

func TestLocalsAt(t *testing.T) {
	src := `top = 1
executable("bin") {
  inner = 2
  if (cond) {
    branch = 3
  }
}
after = 4
`
	file := buildAnalyzedFile("test.gn", &Document{Content: []byte(src)}, 0)

	insidePos := strings.Index(src, "branch")
	locals := file.LocalsAt(insidePos)
	assert.Contains(t, locals, "top")
	assert.Contains(t, locals, "inner")
	assert.Contains(t, locals, "branch")
	assert.Contains(t, locals, "after")

	outsidePos := strings.Index(src, "after")
	locals = file.LocalsAt(outsidePos)
	assert.Contains(t, locals, "top")
	assert.NotContains(t, locals, "inner")
	assert.NotContains(t, locals, "branch")
}

func TestIdentifierAt(t *testing.T) {
	src := `flags = defaults
group("g") {
  deps = flags
}
`
	file := buildAnalyzedFile("test.gn", &Document{Content: []byte(src)}, 0)

	id := file.IdentifierAt(strings.Index(src, "defaults") + 2)
	require.NotNil(t, id)
	assert.Equal(t, "defaults", id.Name)

	id = file.IdentifierAt(strings.LastIndex(src, "flags") + 1)
	require.NotNil(t, id)
	assert.Equal(t, "flags", id.Name)

	assert.Nil(t, file.IdentifierAt(strings.Index(src, `"g"`)+1))
}

func TestAnalyzedFile_LinkAt(t *testing.T) {
	src := `import("//build/rules.gni")
`
	file := buildAnalyzedFile("/ws/test.gn", &Document{Content: []byte(src)}, 0)
	require.NotEmpty(t, file.Links)

	link, ok := file.LinkAt(strings.Index(src, "rules") + 1)
	require.True(t, ok)
	assert.Equal(t, LinkImport, link.Kind)
	assert.Equal(t, "//build/rules.gni", link.Raw)

	_, ok = file.LinkAt(0)
	assert.False(t, ok)
}
