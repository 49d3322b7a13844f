package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/testing/suite"
)

func TestResultRepository_Save(t *testing.T) {
	t.Run("Save_ListByRoom", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewResultRepository(st.Storage)

		// Given: two finished games in the same room
		first := entity.MatchResult{
			RoomCode:   "abc123",
			Winner:     entity.PlayerX,
			Moves:      7,
			BoardSize:  3,
			FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
		second := first
		second.Winner = entity.PlayerO
		second.Moves = 10

		// When: both are saved
		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))

		// Then: they are listed in save order
		results, err := repo.ListByRoom(ctx, "abc123")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, first, results[0])
		assert.Equal(t, second, results[1])
	})

	t.Run("Save_CountsWins", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewResultRepository(st.Storage)

		// Given: X wins twice and O once
		for _, winner := range []entity.Mark{entity.PlayerX, entity.PlayerO, entity.PlayerX} {
			require.NoError(t, repo.Save(ctx, entity.MatchResult{RoomCode: "room01", Winner: winner, BoardSize: 3}))
		}

		// When: the counters are read
		wins, err := repo.Wins(ctx)

		// Then: each side has its own count
		require.NoError(t, err)
		assert.Equal(t, map[entity.Mark]int64{entity.PlayerX: 2, entity.PlayerO: 1}, wins)
	})
}

func TestResultRepository_Empty(t *testing.T) {
	ctx, st := suite.New(t)

	repo := NewResultRepository(st.Storage)

	// When: nothing was saved
	results, err := repo.ListByRoom(ctx, "nothing")
	require.NoError(t, err)

	wins, err := repo.Wins(ctx)
	require.NoError(t, err)

	// Then: empty list and zero counters
	assert.Empty(t, results)
	assert.Equal(t, map[entity.Mark]int64{entity.PlayerX: 0, entity.PlayerO: 0}, wins)
}
