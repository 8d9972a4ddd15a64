package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bloxmate/internal/domain"
)

func TestIsInsufficient(t *testing.T) {
	e := NewInsufficiencyEvaluator()

	for _, text := range []string{
		"The provided documents do not contain specific information about that. The context does not contain specific information about DNS.",
		"You may need to refer to additional resources.",
		"There is no specific information about licensing available.",
		"There is not information on that topic provided here.",
		"I cannot provide further details on this.",
		"I don't have any specific information about that product.",
		"The context provided doesn't mention pricing.",
		"That feature is NOT MENTIONED IN THE CONTEXT.",
		"There is no mention of NetMRI in the provided context.",
	} {
		assert.True(t, e.IsInsufficient(text), text)
	}

	for _, text := range []string{
		"NIOS is the operating system that powers Infoblox appliances.",
		"",
		"Contact the platform team for access.",
	} {
		assert.False(t, e.IsInsufficient(text), text)
	}
}

func TestIsInsufficient_MonotonicOverNonMatchingText(t *testing.T) {
	e := NewInsufficiencyEvaluator()
	answer := "Grid Manager is the web interface for NIOS."
	assert.False(t, e.IsInsufficient(answer))

	for _, extra := range []string{" It runs on port 443.", "\nSee the admin guide.", " Information is power."} {
		answer += extra
		assert.False(t, e.IsInsufficient(answer), answer)
	}
}

func TestEvaluate(t *testing.T) {
	e := NewInsufficiencyEvaluator()

	c := e.Evaluate(domain.AnswerCandidate{Text: "The document does not contain specific information on that.", Origin: domain.TagProduct})
	assert.Equal(t, domain.Insufficient, c.Sufficiency)
	assert.Equal(t, domain.TagProduct, c.Origin)

	c = e.Evaluate(domain.AnswerCandidate{Text: "DHCP leases last 12 hours.", Sufficiency: domain.Insufficient})
	assert.Equal(t, domain.Sufficient, c.Sufficiency)
}
