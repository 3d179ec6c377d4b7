package words

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector() *Selector {
	return NewSelector(rand.New(rand.NewSource(42)))
}

func TestPick_NoRepeatsUntilExhaustion(t *testing.T) {
	s := newTestSelector()
	bank := []string{"cat", "dog", "fish", "bird", "mouse"}

	var used []string
	seen := make(map[string]bool)
	for i := 0; i < len(bank); i++ {
		word, newUsed, err := s.Pick(bank, used)
		require.NoError(t, err)
		assert.False(t, seen[word], "word %q repeated before bank exhaustion", word)
		seen[word] = true
		used = newUsed
	}
	assert.Len(t, used, len(bank))
}

func TestPick_ResetsOnExhaustion(t *testing.T) {
	s := newTestSelector()
	bank := []string{"cat", "dog"}
	used := []string{"cat", "dog"}

	word, newUsed, err := s.Pick(bank, used)
	require.NoError(t, err)
	assert.Contains(t, bank, word)
	// The pool reset and was re-seeded with just the new pick.
	assert.Equal(t, []string{word}, newUsed)
}

func TestPick_AppendsToUsed(t *testing.T) {
	s := newTestSelector()
	bank := []string{"cat", "dog", "fish"}

	word, used, err := s.Pick(bank, []string{"cat"})
	require.NoError(t, err)
	assert.NotEqual(t, "cat", word)
	assert.Equal(t, []string{"cat", word}, used)
}

func TestPick_EmptyBank(t *testing.T) {
	s := newTestSelector()
	_, _, err := s.Pick(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestPick_FullBankConsumedMidGame(t *testing.T) {
	s := newTestSelector()
	bank := make([]string, 50)
	used := make([]string, 50)
	for i := range bank {
		bank[i] = string(rune('a' + i%26)) + string(rune('0'+i/26))
		used[i] = bank[i]
	}

	word, newUsed, err := s.Pick(bank, used)
	require.NoError(t, err)
	assert.Contains(t, bank, word)
	assert.Len(t, newUsed, 1)
}

func TestDefaultBank_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, w := range DefaultBank {
		assert.False(t, seen[w], "duplicate word %q in default bank", w)
		seen[w] = true
	}
}
