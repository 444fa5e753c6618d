package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bullpen-rag/internal/domain"
)

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	got := domain.NormalizeText("  revenue \t grew\n\n strongly  ")
	assert.Equal(t, "revenue grew strongly", got)
}

func TestNormalizeText_SplitsJoinedWords(t *testing.T) {
	// A removed line break leaves the last word of one line glued to the
	// first word of the next.
	got := domain.NormalizeText("quarterly revenueGrew by 40%")
	assert.Equal(t, "quarterly revenue Grew by 40%", got)
}

func TestNormalizeText_StripsNonASCII(t *testing.T) {
	got := domain.NormalizeText("revenue — up 40% €5m")
	assert.Equal(t, "revenue up 40% 5m", got)
}

func TestNormalizeText_EmptyInput(t *testing.T) {
	assert.Equal(t, "", domain.NormalizeText(""))
	assert.Equal(t, "", domain.NormalizeText("   \n\t  "))
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text already clean",
		"  messy\n\ninput with\ttabs  ",
		"joinedWords and éaccents",
	}
	for _, input := range inputs {
		once := domain.NormalizeText(input)
		twice := domain.NormalizeText(once)
		assert.Equal(t, once, twice, "input %q", input)
	}
}
