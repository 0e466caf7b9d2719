package loader

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/domain"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Action
		wantErr error
	}{
		{
			name: "load summaries",
			raw:  `{"action":"load_tool_summaries","servers":["calc","weather"]}`,
			want: LoadSummaries{Servers: []string{"calc", "weather"}},
		},
		{
			name: "load tools",
			raw:  `{"action":"load_tools","server":" calc ","tools":["add"]}`,
			want: LoadTools{Server: "calc", Tools: []string{"add"}},
		},
		{
			name: "extra fields ignored",
			raw:  `{"action":"load_tools","server":"calc","tools":["add"],"servers":["weather"]}`,
			want: LoadTools{Server: "calc", Tools: []string{"add"}},
		},
		{name: "empty", raw: ``, wantErr: domain.ErrMalformedAction},
		{name: "null", raw: `null`, wantErr: domain.ErrMalformedAction},
		{name: "not an object", raw: `["load_tools"]`, wantErr: domain.ErrMalformedAction},
		{name: "invalid json", raw: `{"action":`, wantErr: domain.ErrMalformedAction},
		{name: "missing action", raw: `{"servers":["calc"]}`, wantErr: domain.ErrMalformedAction},
		{name: "non-string action", raw: `{"action":3}`, wantErr: domain.ErrMalformedAction},
		{name: "unknown action", raw: `{"action":"unload_tools","server":"calc"}`, wantErr: domain.ErrUnknownAction},
		{name: "summaries without servers", raw: `{"action":"load_tool_summaries"}`, wantErr: domain.ErrMalformedAction},
		{name: "summaries with empty list", raw: `{"action":"load_tool_summaries","servers":[]}`, wantErr: domain.ErrMalformedAction},
		{name: "summaries with non-string entry", raw: `{"action":"load_tool_summaries","servers":["calc",1]}`, wantErr: domain.ErrMalformedAction},
		{name: "tools without server", raw: `{"action":"load_tools","tools":["add"]}`, wantErr: domain.ErrMalformedAction},
		{name: "tools with empty server", raw: `{"action":"load_tools","server":"","tools":["add"]}`, wantErr: domain.ErrMalformedAction},
		{name: "tools without list", raw: `{"action":"load_tools","server":"calc"}`, wantErr: domain.ErrMalformedAction},
		{name: "summaries with only blank entries", raw: `{"action":"load_tool_summaries","servers":["  "]}`, wantErr: domain.ErrMalformedAction},
		{
			name: "summaries keep a list with one usable entry",
			raw:  `{"action":"load_tool_summaries","servers":[" ","calc"]}`,
			want: LoadSummaries{Servers: []string{" ", "calc"}},
		},
		{name: "tools with blank server", raw: `{"action":"load_tools","server":"   ","tools":["add"]}`, wantErr: domain.ErrMalformedAction},
		{name: "tools with only blank entries", raw: `{"action":"load_tools","server":"calc","tools":["  ","\t"]}`, wantErr: domain.ErrMalformedAction},
		{name: "tools as string", raw: `{"action":"load_tools","server":"calc","tools":"add"}`, wantErr: domain.ErrMalformedAction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAction(json.RawMessage(tc.raw))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("action mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAction_UnknownActionNamesValue(t *testing.T) {
	_, err := ParseAction(json.RawMessage(`{"action":"delete_everything"}`))
	require.Error(t, err)
	assert.Equal(t, `invalid action "delete_everything", use 'load_tool_summaries' or 'load_tools'`, domain.MessageOf(err))
}

func TestInputSchema(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal(inputSchemaJSON, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"action"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"action", "servers", "tools", "server"} {
		assert.Contains(t, props, key)
	}
	action := props["action"].(map[string]any)
	assert.Equal(t, []any{"load_tool_summaries", "load_tools"}, action["enum"])
}
