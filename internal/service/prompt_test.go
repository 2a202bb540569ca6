package service

import (
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptTemplate_DefaultWhenEmpty(t *testing.T) {
	p, err := NewPromptTemplate("  ")
	require.NoError(t, err)

	got := p.Format("Document: a.txt\nhello", "What is it?")

	assert.Contains(t, got, "Answer based ONLY on the provided context.")
	assert.Contains(t, got, "Context from documents:\nDocument: a.txt\nhello\n\nQuestion: What is it?\n\nAnswer:")
}

func TestNewPromptTemplate_RequiresPlaceholders(t *testing.T) {
	_, err := NewPromptTemplate("Question: {question}")
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeValidation, domain.ErrorCode(err))
	assert.Contains(t, err.Error(), "{context}")

	_, err = NewPromptTemplate("Context: {context}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{question}")
}

func TestPromptTemplate_FormatSinglePass(t *testing.T) {
	p, err := NewPromptTemplate("C={context} Q={question}")
	require.NoError(t, err)

	got := p.Format("uses {question} literally", "why {context}?")

	assert.Equal(t, "C=uses {question} literally Q=why {context}?", got)
}
