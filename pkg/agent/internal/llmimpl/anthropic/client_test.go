package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/pkg/agent/llm"
)

func TestEnsureAlternationExtractsSystem(t *testing.T) {
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage("rules"),
		llm.NewUserMessage("question"),
	}

	system, merged, err := ensureAlternation(messages)
	require.NoError(t, err)
	assert.Equal(t, "rules", system)
	require.Len(t, merged, 1)
	assert.Equal(t, llm.RoleUser, merged[0].Role)
}

func TestEnsureAlternationMergesConsecutiveUsers(t *testing.T) {
	messages := []llm.CompletionMessage{
		llm.NewUserMessage("part one"),
		llm.NewUserMessage("part two"),
	}

	_, merged, err := ensureAlternation(messages)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "part one\n\npart two", merged[0].Content)
}

func TestEnsureAlternationRejectsAssistantTail(t *testing.T) {
	messages := []llm.CompletionMessage{
		llm.NewUserMessage("question"),
		{Role: llm.RoleAssistant, Content: "answer"},
	}

	_, _, err := ensureAlternation(messages)
	require.Error(t, err)
}

func TestEnsureAlternationRejectsEmpty(t *testing.T) {
	_, _, err := ensureAlternation(nil)
	require.Error(t, err)

	_, _, err = ensureAlternation([]llm.CompletionMessage{llm.NewSystemMessage("only system")})
	require.Error(t, err)
}
