package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormatting(t *testing.T) {
	err := New(CodeMalformedDirective, "expected 'from' in import").
		WithContext(CtxLine, 3)

	assert.Equal(t, "[MALFORMED_DIRECTIVE] expected 'from' in import map[line:3]", err.Error())
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeUnresolvedPath, "file not found")
	wrapped := fmt.Errorf("transpile a.smlb: %w", base)

	assert.True(t, IsCode(wrapped, CodeUnresolvedPath))
	assert.False(t, IsCode(wrapped, CodeMalformedDirective))
	assert.Equal(t, CodeUnresolvedPath, CodeOf(wrapped))
	assert.Equal(t, CodeInternal, CodeOf(os.ErrNotExist))
}

func TestAddContext(t *testing.T) {
	err := AddContext(New(CodeUnrecognizedExtension, "unknown file extension"), CtxExtension, ".txt")
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ".txt", de.Context[CtxExtension])

	plain := AddContext(os.ErrPermission, CtxPath, "/tmp/x")
	require.ErrorAs(t, plain, &de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, plain, os.ErrPermission)
}
