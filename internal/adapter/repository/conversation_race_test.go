package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourhub/internal/domain/entity"
	domainrepo "tourhub/internal/domain/repository"
)

// assertSingleConversationPerPair races first contacts for one pair, with the
// arguments in both orders, and checks that exactly one conversation exists
// and exactly one caller saw it created.
func assertSingleConversationPerPair(t *testing.T, repo domainrepo.ConversationRepository) {
	t.Helper()
	ctx := context.Background()
	a, b := "member-race", "admin-race"

	const n = 32
	ids := make([]string, n)
	created := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a, b
			if i%2 == 1 {
				x, y = y, x
			}
			c, ok, err := repo.FindOrCreateDirect(ctx, x, y)
			if !assert.NoError(t, err) {
				return
			}
			ids[i] = c.ID
			created[i] = ok
		}(i)
	}
	wg.Wait()

	mine, err := repo.ListByParticipant(ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.ElementsMatch(t, []string{a, b}, mine[0].Participants)
	assert.Equal(t, entity.PairKey(a, b), entity.PairKey(mine[0].Participants[0], mine[0].Participants[1]))

	creations := 0
	for i := range ids {
		assert.Equal(t, mine[0].ID, ids[i])
		if created[i] {
			creations++
		}
	}
	assert.Equal(t, 1, creations)
}
