package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryEvictsKeepingFirst(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 25; i++ {
		h.Add(RoleUser, fmt.Sprint(i))
	}

	msgs := h.Messages()
	assert.Len(t, msgs, DefaultHistoryLimit)
	assert.Equal(t, "0", msgs[0].Content)
	assert.Equal(t, "6", msgs[1].Content)
	assert.Equal(t, "24", msgs[len(msgs)-1].Content)
}

func TestHistoryCustomLimit(t *testing.T) {
	h := NewHistory(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.Add(RoleUser, s)
	}

	var got []string
	for _, m := range h.Messages() {
		got = append(got, m.Content)
	}
	assert.Equal(t, []string{"a", "c", "d"}, got)
}

func TestHistoryDropLast(t *testing.T) {
	h := NewHistory(0)
	h.DropLast()
	h.Add(RoleUser, "a")
	h.Add(RoleAssistant, "b")
	h.DropLast()

	assert.Equal(t, []Message{{Role: RoleUser, Content: "a"}}, h.Messages())
}

func TestClaudeMergesConsecutiveRoles(t *testing.T) {
	c := NewClaude("k", "", 0)
	c.history.Add(RoleUser, "a")
	c.history.Add(RoleUser, "b")
	c.history.Add(RoleAssistant, "c")

	msgs := c.buildAPIMessages()
	assert.Len(t, msgs, 2)
	assert.Len(t, msgs[0].Content, 2)
}
