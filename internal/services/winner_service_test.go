package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas-admin/internal/models"
)

func TestWinnerService_Declare(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	raf := e.raffle(t, 3)
	tk := e.ticket(t, raf.ID, "2")
	req := e.submit(t, tk.ID, ana)

	_, err := e.winners.DeclareWinner(ctx, tk.ID, "Moto")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.payments.Approve(ctx, req.ID)
	require.NoError(t, err)
	_, err = e.winners.DeclareWinner(ctx, tk.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	w, err := e.winners.DeclareWinner(ctx, tk.ID, "Moto")
	require.NoError(t, err)
	assert.Equal(t, "Ana López", w.PlayerName)

	_, err = e.winners.DeclareWinner(ctx, tk.ID, "Moto")
	assert.ErrorIs(t, err, ErrConflict)

	list, err := e.winners.ListWinners(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].TicketNumber)

	players, err := e.players.Summaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWinner, players[0].Status)

	require.NoError(t, e.winners.DeleteWinner(ctx, w.ID))
	players, err = e.players.Summaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, players[0].Status)
}
