package quiz

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func makeCards(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{
			ID:    fmt.Sprintf("c%d", i),
			Front: fmt.Sprintf("front %d", i),
			Back:  fmt.Sprintf("back %d", i),
			Tags:  []string{},
		}
	}
	return cards
}

func TestSingleCardSession(t *testing.T) {
	s := New(seeded())
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Start(makeCards(1)))
	assert.Equal(t, AwaitingReveal, s.State())
	assert.False(t, s.IsRevealed())
	assert.Equal(t, "Card 1 of 1", s.Progress())

	require.NoError(t, s.Reveal())
	assert.Equal(t, Revealed, s.State())
	assert.True(t, s.IsRevealed())

	require.NoError(t, s.Answer(true))
	assert.Equal(t, Completed, s.State())
	assert.Equal(t, 1, s.CorrectCount())
	assert.Equal(t, 0, s.WrongCount())
	assert.Equal(t, 100, s.Score())
	assert.Equal(t, "Done! 1/1 correct (100%).", s.Summary())

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	tests := []struct {
		n, k int
		want int
	}{
		{3, 1, 33},
		{3, 2, 67},
		{8, 1, 13},
		{4, 0, 0},
		{5, 5, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.k, tt.n), func(t *testing.T) {
			s := New(seeded())
			require.NoError(t, s.Start(makeCards(tt.n)))

			for i := 0; i < tt.n; i++ {
				require.NoError(t, s.Reveal())
				require.NoError(t, s.Answer(i < tt.k))
				if i < tt.n-1 {
					assert.Equal(t, AwaitingReveal, s.State())
					assert.False(t, s.IsRevealed())
				}
			}

			assert.Equal(t, Completed, s.State())
			assert.Equal(t, tt.k, s.CorrectCount())
			assert.Equal(t, tt.n-tt.k, s.WrongCount())
			assert.Equal(t, tt.want, s.Score())
		})
	}
}

func TestStart_Empty(t *testing.T) {
	s := New(seeded())
	err := s.Start(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyQueue)
	assert.Equal(t, Idle, s.State())
}

func TestAnswerBeforeReveal(t *testing.T) {
	s := New(seeded())
	require.NoError(t, s.Start(makeCards(2)))

	err := s.Answer(true)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, AwaitingReveal, s.State())
	assert.Zero(t, s.CorrectCount())
}

func TestOutOfOrderCalls(t *testing.T) {
	s := New(seeded())
	assert.ErrorIs(t, s.Reveal(), domain.ErrInvalidState)
	assert.ErrorIs(t, s.Answer(false), domain.ErrInvalidState)

	require.NoError(t, s.Start(makeCards(1)))
	require.NoError(t, s.Reveal())
	require.NoError(t, s.Reveal(), "reveal is idempotent")
	require.NoError(t, s.Answer(false))

	assert.ErrorIs(t, s.Reveal(), domain.ErrInvalidState)
	assert.ErrorIs(t, s.Answer(true), domain.ErrInvalidState)
}

func TestExit(t *testing.T) {
	s := New(seeded())
	require.NoError(t, s.Start(makeCards(3)))
	require.NoError(t, s.Reveal())

	s.Exit()
	assert.Equal(t, Idle, s.State())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Progress())

	require.NoError(t, s.Start(makeCards(2)), "a new quiz can start after exit")
	assert.Equal(t, AwaitingReveal, s.State())
}

func TestShuffleIsPermutation(t *testing.T) {
	cards := makeCards(20)

	for seed := uint64(0); seed < 10; seed++ {
		s := New(rand.New(rand.NewPCG(seed, seed+1)))
		require.NoError(t, s.Start(cards))
		assert.ElementsMatch(t, cards, s.Queue())
	}
}

func TestShuffleReordersSometimes(t *testing.T) {
	cards := makeCards(10)
	s := New(seeded())

	moved := false
	for i := 0; i < 20 && !moved; i++ {
		require.NoError(t, s.Start(cards))
		q := s.Queue()
		for j := range q {
			if q[j].ID != cards[j].ID {
				moved = true
				break
			}
		}
	}
	assert.True(t, moved, "expected at least one non-identity order")
}

func TestQueueIsSnapshot(t *testing.T) {
	cards := makeCards(3)
	s := New(seeded())
	require.NoError(t, s.Start(cards))

	cards[0].Front = "mutated"
	cards[1].Tags = append(cards[1].Tags, "new")

	for _, c := range s.Queue() {
		assert.NotEqual(t, "mutated", c.Front)
		assert.Empty(t, c.Tags)
	}
}

func TestCurrentFollowsIndex(t *testing.T) {
	s := New(seeded())
	require.NoError(t, s.Start(makeCards(3)))
	q := s.Queue()

	for i := range q {
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, q[i].ID, cur.ID)
		assert.Equal(t, fmt.Sprintf("Card %d of 3", i+1), s.Progress())
		require.NoError(t, s.Reveal())
		require.NoError(t, s.Answer(true))
	}
}
