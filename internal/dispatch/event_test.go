package dispatch_test

import (
	"testing"

	"github.com/rpggio/docvault/internal/dispatch"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want dispatch.Event
	}{
		{
			name: "command with args",
			in:   "/commit Specs fixed the intro",
			want: dispatch.Event{Kind: dispatch.KindCommand, Command: "commit", Args: []string{"Specs", "fixed", "the", "intro"}},
		},
		{
			name: "command is lowercased",
			in:   "/ListProjects",
			want: dispatch.Event{Kind: dispatch.KindCommand, Command: "listprojects", Args: []string{}},
		},
		{
			name: "surrounding whitespace",
			in:   "  /help  ",
			want: dispatch.Event{Kind: dispatch.KindCommand, Command: "help", Args: []string{}},
		},
		{
			name: "free text",
			in:   "My Project Name",
			want: dispatch.Event{Kind: dispatch.KindText, Text: "My Project Name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dispatch.ParseMessage(1, "Alice", tt.in)
			require.Equal(t, tt.want.Kind, got.Kind)
			require.Equal(t, tt.want.Command, got.Command)
			require.Equal(t, tt.want.Text, got.Text)
			if tt.want.Kind == dispatch.KindCommand {
				require.Equal(t, tt.want.Args, got.Args)
			}
		})
	}
}
