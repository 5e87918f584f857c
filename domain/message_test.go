package domain

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestCommand_Kind(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want CommandKind
	}{
		{"create", NewCreateCommand("u1", lo.ToPtr("hi"), nil, nil), CreateCommand},
		{"update", NewUpdateCommand("m1", "hi!"), UpdateCommand},
		{"delete", NewDeleteCommand("m1", []string{"u1"}), DeleteCommand},
		{"delete wins over update flag", Command{ID: lo.ToPtr("m1"), IsUpdate: true, DeleteFor: []string{"u1"}}, DeleteCommand},
		{"update flag without id is a create", Command{IsUpdate: true}, CreateCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cmd.Kind())
		})
	}
}

func TestMessage_IsDeletedFor(t *testing.T) {
	req := require.New(t)
	msg := Message{ID: "m1", DeletedFor: map[string]int64{"self": 200}}

	req.True(msg.IsDeletedFor("self"))
	req.False(msg.IsDeletedFor("other"))
	req.False(Message{ID: "m2"}.IsDeletedFor("self"))
}

func TestImageURL(t *testing.T) {
	req := require.New(t)
	req.Equal("https://chat.example/api/image?id=abc", ImageURL("https://chat.example", "abc"))
	req.Equal(ImageURL("https://chat.example", "abc"), ImageURL("https://chat.example", "abc"))
	req.Equal("https://chat.example/api/image?id=", ImageURL("https://chat.example", ""))
	// References are concatenated verbatim
	req.Equal("https://chat.example/api/image?id=a+b/c==", ImageURL("https://chat.example", "a+b/c=="))
}
