package invocation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frencli/frencli/internal/cmderr"
)

func decodeArgs(t *testing.T, args ...string) ([]Command, error) {
	t.Helper()
	seq, err := Tokenize(args)
	require.NoError(t, err)
	return Decode(seq)
}

func TestDecode_TypedRecords(t *testing.T) {
	cmds, err := decodeArgs(t,
		"list", "*.txt", "--recursive", "--exclude", "tmp*",
		"rename", "%N.%E", "--json",
		"validate", "--skip-invalid",
		"apply", "--yes", "--no-audit",
	)
	require.NoError(t, err)
	require.Len(t, cmds, 4)

	list, ok := cmds[0].(*ListCommand)
	require.True(t, ok)
	assert.Equal(t, []string{"*.txt"}, list.Patterns)
	assert.True(t, list.Recursive)
	assert.Equal(t, []string{"tmp*"}, list.Exclude)
	assert.False(t, list.FullPath)

	rename, ok := cmds[1].(*RenameCommand)
	require.True(t, ok)
	assert.Equal(t, []string{"%N.%E"}, rename.Args)
	assert.True(t, rename.JSON)

	validate, ok := cmds[2].(*ValidateCommand)
	require.True(t, ok)
	assert.True(t, validate.SkipInvalid)

	apply, ok := cmds[3].(*ApplyCommand)
	require.True(t, ok)
	assert.True(t, apply.Yes)
	assert.True(t, apply.NoAudit)
	assert.False(t, apply.Overwrite)
}

func TestDecode_Template(t *testing.T) {
	cmds, err := decodeArgs(t, "template", "--use", "photo-date")
	require.NoError(t, err)

	tmpl := cmds[0].(*TemplateCommand)
	assert.True(t, tmpl.HasUse)
	assert.Equal(t, "photo-date", tmpl.Use)
	assert.False(t, tmpl.List)
}

func TestDecode_AuditLimit(t *testing.T) {
	cmds, err := decodeArgs(t, "audit", "--limit", "10", "--json")
	require.NoError(t, err)

	a := cmds[0].(*AuditCommand)
	require.NotNil(t, a.Limit)
	assert.Equal(t, 10, *a.Limit)

	cmds, err = decodeArgs(t, "audit")
	require.NoError(t, err)
	assert.Nil(t, cmds[0].(*AuditCommand).Limit)
	assert.True(t, a.JSON)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind error
		want string
	}{
		{"unknown flag", []string{"apply", "--force"}, cmderr.ErrParse, "unknown flag '--force' for 'apply'"},
		{"bad limit", []string{"audit", "--limit", "ten"}, cmderr.ErrConfig, "non-negative number"},
		{"negative limit", []string{"audit", "--limit", "-3"}, cmderr.ErrConfig, "got '-3'"},
		{"missing limit", []string{"audit", "--limit"}, cmderr.ErrConfig, "requires a N argument"},
		{"missing template", []string{"template", "--use"}, cmderr.ErrConfig, "'template --use' requires"},
		{"two template values", []string{"template", "--use", "a", "b"}, cmderr.ErrParse, "takes a single"},
		{"missing files-from", []string{"list", "--files-from"}, cmderr.ErrConfig, "'list --files-from' requires"},
		{"stray argument", []string{"apply", "now"}, cmderr.ErrParse, "unexpected argument 'now'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeArgs(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_HelpAllowsStrayArguments(t *testing.T) {
	cmds, err := decodeArgs(t, "apply", "what", "--help")
	require.NoError(t, err)
	assert.True(t, cmds[0].WantsHelp())
}
