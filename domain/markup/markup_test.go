package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
)

func TestScanMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no mentions yields nil", "plain text", nil},
		{"single mention", "hello @alice", []string{"alice"}},
		{"multiple mentions in order", "@alice please ask @bob", []string{"alice", "bob"}},
		{"duplicates preserved", "@alice and @bob and @alice", []string{"alice", "bob", "alice"}},
		{"hyphen and underscore allowed", "cc @dev-ops_2", []string{"dev-ops_2"}},
		{"token stops at punctuation", "thanks @alice!", []string{"alice"}},
		{"mention inside email-like text still matches name part", "mail me@example.com", []string{"example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanMentions(tt.text))
		})
	}
}

func TestToBBCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading prefix stripped", "# Release notes", "Release notes"},
		{"deep heading stripped", "##### Details", "Details"},
		{"bold markers removed", "**important**", "important"},
		{"italic markers removed", "*soft*", "soft"},
		{"unordered list bullet", "* first item", "● first item"},
		{"unchecked checkbox", "- [ ] review docs", "- □ review docs"},
		{"blockquote marker", "> quoted line", "| quoted line"},
		{"reserved characters escaped last", "array[0] #note", "array［0］ ＃note"},
		{"hash-space is consumed as a heading marker anywhere", "see # note", "see note"},
		{"heading strips before hash escape", "## Part #2", "Part ＃2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToBBCode(tt.in))
		})
	}
}

func TestEscapeReserved(t *testing.T) {
	in := "tag [B] and #1"
	once := EscapeReserved(in)
	assert.Equal(t, "tag ［B］ and ＃1", once)

	// Escaping is idempotent; full-width characters are left alone.
	assert.Equal(t, once, EscapeReserved(once))
}

func TestWrapDivider(t *testing.T) {
	want := strings.Repeat("-", 54) + "\nbody\n" + strings.Repeat("-", 54)
	assert.Equal(t, want, WrapDivider("body"))

	t.Run("body is trimmed before fencing", func(t *testing.T) {
		assert.Equal(t, want, WrapDivider("\n  body \n\n"))
	})
}

func TestSubstituteMentions(t *testing.T) {
	ids := []identity.Identity{
		{ID: 12, Name: "Alice Kim", Login: "alice"},
		{ID: identity.UnresolvedID, Name: "bob", Login: "bob"},
	}

	out := SubstituteMentions("ping @alice, ping @bob", ids)
	assert.Equal(t, "ping [USER=12]Alice Kim[/USER], ping @bob", out)
}

func TestRenderBody(t *testing.T) {
	m := identity.Mapping{"alice": {ID: 12, Name: "Alice Kim"}}

	t.Run("masks, mentions and divider applied together", func(t *testing.T) {
		body, ids := RenderBody("## Update\n**done**, thanks @alice and @bob", m)

		require.Len(t, ids, 2)
		assert.Equal(t, 12, ids[0].ID)
		assert.False(t, ids[1].Resolved())

		assert.True(t, strings.HasPrefix(body, strings.Repeat("-", 54)+"\n"))
		assert.True(t, strings.HasSuffix(body, "\n"+strings.Repeat("-", 54)))
		assert.Contains(t, body, "Update")
		assert.Contains(t, body, "done, thanks [USER=12]Alice Kim[/USER] and @bob")
		assert.NotContains(t, body, "##")
		assert.NotContains(t, body, "**")
	})

	t.Run("no mentions yields nil identities", func(t *testing.T) {
		body, ids := RenderBody("just text", m)
		assert.Nil(t, ids)
		assert.Equal(t, WrapDivider("just text"), body)
	})
}

func TestQuoteComment(t *testing.T) {
	m := identity.Mapping{"alice": {ID: 12, Name: "Alice Kim"}}

	// Comment bodies keep their markdown; only mentions are rewritten.
	body, ids := QuoteComment("**bold** stays, right @alice?", m)

	require.Len(t, ids, 1)
	assert.Equal(t, 12, ids[0].ID)
	assert.Contains(t, body, "**bold** stays, right [USER=12]Alice Kim[/USER]?")
	assert.True(t, strings.HasPrefix(body, strings.Repeat("-", 54)))
}
