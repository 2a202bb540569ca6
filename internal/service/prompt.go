package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
)

const (
	contextPlaceholder  = "{context}"
	questionPlaceholder = "{question}"
)

// DefaultPromptTemplate asks for an answer drawn only from the context.
const DefaultPromptTemplate = `You are a helpful AI assistant. Answer based ONLY on the provided context.

Instructions:
- Use only facts stated in the context below.
- Do not add inline citations or document names; sources are listed separately.
- If the context does not contain the answer, say explicitly that the information is not available in the provided documents.
- Prefer exact figures, dates and names from the context over paraphrase.

Context from documents:
{context}

Question: {question}

Answer:`

// PromptTemplate fills {context} and {question} in a prompt.
type PromptTemplate struct {
	template string
}

// NewPromptTemplate validates a template. An empty template selects
// DefaultPromptTemplate.
func NewPromptTemplate(template string) (*PromptTemplate, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	for _, placeholder := range []string{contextPlaceholder, questionPlaceholder} {
		if !strings.Contains(template, placeholder) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid prompt template",
				fmt.Errorf("missing %s placeholder", placeholder))
		}
	}
	return &PromptTemplate{template: template}, nil
}

// Format substitutes both placeholders in a single pass, so braces inside the
// context or question are left alone.
func (p *PromptTemplate) Format(contextText, question string) string {
	return strings.NewReplacer(contextPlaceholder, contextText, questionPlaceholder, question).Replace(p.template)
}
