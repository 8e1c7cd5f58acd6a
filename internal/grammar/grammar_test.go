package grammar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKeyword(t *testing.T) {
	for _, k := range Keywords {
		assert.True(t, IsKeyword(string(k)), "keyword %s", k)
	}

	for _, tok := range []string{"make", "transform", "--list", "LIST", ""} {
		assert.False(t, IsKeyword(tok), "token %q", tok)
	}
}

func TestSubcommand_IsBoolFlag(t *testing.T) {
	tests := []struct {
		keyword Keyword
		flag    string
		want    bool
	}{
		{List, "recursive", true},
		{List, "fullpath", true},
		{List, "json", true},
		{List, "exclude", false},
		{List, "files-from", false},
		{Template, "list", true},
		{Template, "use", false},
		{Apply, "no-audit", true},
		{Apply, "yes", true},
		{Undo, "check", true},
		{Undo, "apply", true},
		{Audit, "limit", false},
		{Rename, "yes", false},
		{Interactive, "help", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.keyword)+"/"+tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, MustLookup(tt.keyword).IsBoolFlag(tt.flag))
		})
	}
}

func TestSubcommand_LooseDashArgs(t *testing.T) {
	assert.True(t, MustLookup(List).LooseDashArgs)
	assert.False(t, MustLookup(Rename).LooseDashArgs)
	assert.False(t, MustLookup(Apply).LooseDashArgs)
}

func TestSubcommand_Standalone(t *testing.T) {
	var standalone []Keyword
	for _, k := range Keywords {
		if MustLookup(k).Standalone {
			standalone = append(standalone, k)
		}
	}
	assert.Equal(t, []Keyword{Undo, Audit, Interactive}, standalone)
}

func TestSuggestLong(t *testing.T) {
	assert.Equal(t, "--yes", SuggestLong("-y"))
	assert.Equal(t, "--yes", SuggestLong("-Y"))
	assert.Equal(t, "--version", SuggestLong("-v"))
	assert.Equal(t, "", SuggestLong("-z"))
}

func TestShortFlagMessage(t *testing.T) {
	msg := ShortFlagMessage("-y")
	assert.Contains(t, msg, "'-y'")
	assert.Contains(t, msg, "Use '--yes' instead of '-y'")
	assert.Contains(t, msg, "-o, -O")
	assert.Contains(t, msg, "--overwrite")

	msg = ShortFlagMessage("-q")
	assert.Contains(t, msg, "Please use the long form instead")
}

func TestWriteSubcommandHelp(t *testing.T) {
	var buf bytes.Buffer
	WriteSubcommandHelp(&buf, "frencli", List)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "List files matching patterns"))
	assert.Contains(t, out, "Usage: frencli list [OPTIONS] <PATTERN>...")
	assert.Contains(t, out, "--files-from")
	assert.Contains(t, out, "--exclude")
	assert.Contains(t, out, "frencli list *.txt")
}

func TestWriteMainHelp(t *testing.T) {
	var buf bytes.Buffer
	WriteMainHelp(&buf, "frencli")

	out := buf.String()
	for _, k := range Keywords {
		require.Contains(t, out, string(k))
	}
	assert.Contains(t, out, `rename "%N_backup.%E"`)
}

func TestMustLookup_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustLookup("make") })
}
