package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderErrors_MatchSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
		code     ErrorCode
		message  string
	}{
		{
			name:     "unknown servers",
			err:      UnknownServerError("load_tool_summaries", []string{"nonexistent", "other"}),
			sentinel: ErrUnknownServer,
			code:     CodeNotFound,
			message:  "unknown server(s): nonexistent, other",
		},
		{
			name:     "server not summarized",
			err:      ServerNotSummarizedError("load_tools", "calc"),
			sentinel: ErrServerNotSummarized,
			code:     CodeFailedPrecond,
			message:  "tool summaries for calc must be loaded first (use load_tool_summaries)",
		},
		{
			name:     "unknown tools",
			err:      UnknownToolError("load_tools", "calc", []string{"divide", "power"}),
			sentinel: ErrUnknownTool,
			code:     CodeNotFound,
			message:  "unknown tool(s) on server calc: divide, power",
		},
		{
			name:     "unknown action",
			err:      UnknownActionError("delete_tools"),
			sentinel: ErrUnknownAction,
			code:     CodeInvalidArgument,
			message:  `invalid action "delete_tools", use 'load_tool_summaries' or 'load_tools'`,
		},
		{
			name:     "malformed action",
			err:      MalformedActionError("missing action"),
			sentinel: ErrMalformedAction,
			code:     CodeInvalidArgument,
			message:  "missing action",
		},
		{
			name:     "name conflict",
			err:      ToolNameConflictError("load_tools", "search", "server github"),
			sentinel: ErrToolNameConflict,
			code:     CodeAlreadyExists,
			message:  "tool name search is already taken by server github",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.sentinel)
			code, ok := CodeFrom(tc.err)
			require.True(t, ok)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.message, MessageOf(tc.err))
		})
	}
}

func TestUnknownToolError_Meta(t *testing.T) {
	err := UnknownToolError("load_tools", "calc", []string{"divide", "power"})
	assert.Equal(t, "calc", err.Meta[MetaServer])
	assert.Equal(t, "divide,power", err.Meta[MetaTools])
}

func TestCatalogFetchError_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := CatalogFetchError("load_tool_summaries", "weather", cause)

	assert.ErrorIs(t, err, ErrCatalogFetch)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
	assert.Equal(t, "fetch from server weather failed: connection reset", MessageOf(err))

	wrapped := fmt.Errorf("turn 2: %w", err)
	code, ok := CodeFrom(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUnavailable, code)
}

func TestErrorString(t *testing.T) {
	err := E(CodeNotFound, "load_tools", "missing", nil)
	assert.Equal(t, "load_tools: NOT_FOUND: missing", err.Error())

	bare := &Error{Code: CodeInternal}
	assert.Equal(t, "INTERNAL", bare.Error())

	var nilErr *Error
	assert.Equal(t, "", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(CodeInternal, "op", nil))

	plain := Wrap(CodeUnavailable, "invoke", errors.New("boom"))
	assert.Equal(t, CodeUnavailable, plain.Code)
	assert.Equal(t, "boom", plain.Message)

	existing := E(CodeNotFound, "", "missing", ErrUnknownTool)
	rewrapped := Wrap(CodeInternal, "invoke", existing)
	assert.Equal(t, CodeNotFound, rewrapped.Code)
	assert.Equal(t, "invoke", rewrapped.Op)
	assert.ErrorIs(t, rewrapped, ErrUnknownTool)
}

func TestCodeFrom_PlainSentinels(t *testing.T) {
	code, ok := CodeFrom(fmt.Errorf("ctx: %w", ErrServerNotSummarized))
	require.True(t, ok)
	assert.Equal(t, CodeFailedPrecond, code)

	_, ok = CodeFrom(errors.New("other"))
	assert.False(t, ok)

	_, ok = CodeFrom(nil)
	assert.False(t, ok)
}
