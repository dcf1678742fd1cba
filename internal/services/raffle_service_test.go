package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

func TestTicketNumbers(t *testing.T) {
	assert.Equal(t, []string{"0"}, TicketNumbers(1))
	assert.Equal(t, []string{"0", "1", "2"}, TicketNumbers(3))
	assert.Nil(t, TicketNumbers(0))

	hundred := TicketNumbers(100)
	assert.Equal(t, "00", hundred[0])
	assert.Equal(t, "99", hundred[99])

	thousand := TicketNumbers(1000)
	assert.Equal(t, "000", thousand[0])
	assert.Equal(t, "999", thousand[999])
}

func TestRaffleService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	cases := map[string]RaffleInput{
		"missing name":     {TicketPrice: 1, TotalTickets: 10},
		"zero price":       {Name: "R", TotalTickets: 10},
		"no tickets":       {Name: "R", TicketPrice: 1},
		"too many tickets": {Name: "R", TicketPrice: 1, TotalTickets: MaxTicketsPerRaffle + 1},
		"end before start": {Name: "R", TicketPrice: 1, TotalTickets: 10, StartsAt: &start, EndsAt: &end},
		"repeated prize":   {Name: "R", TicketPrice: 1, TotalTickets: 10, Prizes: []models.PrizeTier{{Position: 1}, {Position: 1}}},
		"prize position 0": {Name: "R", TicketPrice: 1, TotalTickets: 10, Prizes: []models.PrizeTier{{Position: 0}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.raffles.CreateRaffle(ctx, in, nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRaffleService_CreateUpdateDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	raf, err := e.raffles.CreateRaffle(ctx, RaffleInput{
		Name: " Rifa Moto ", TicketPrice: 2.5, TotalTickets: 100,
		Prizes: []models.PrizeTier{{Position: 1, Description: "Moto"}},
	}, &File{Name: "moto.jpg", Body: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "Rifa Moto", raf.Name)
	assert.True(t, raf.IsActive())
	require.NotEmpty(t, raf.ImageURL)
	assert.Contains(t, raf.ImageURL, "/storage/rifas/")

	views, err := e.tickets.FilteredTickets(ctx, repositories.TicketFilter{RaffleID: raf.ID}, listing.Query{Sort: "numero"})
	require.NoError(t, err)
	require.Len(t, views, 100)
	assert.Equal(t, "00", views[0].Number)
	assert.Equal(t, "99", views[99].Number)

	firstImage := raf.ImageURL
	updated, err := e.raffles.UpdateRaffle(ctx, raf.ID, RaffleInput{Name: "Rifa Carro", TicketPrice: 3, TotalTickets: 5},
		&File{Name: "carro.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "Rifa Carro", updated.Name)
	assert.Equal(t, 100, updated.TotalTickets)
	assert.NotEqual(t, firstImage, updated.ImageURL)
	assert.NoFileExists(t, localPath(e, firstImage))
	assert.FileExists(t, localPath(e, updated.ImageURL))

	require.NoError(t, e.raffles.FinishRaffle(ctx, raf.ID))
	active, err := e.raffles.ActiveRaffles(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, e.raffles.DeleteRaffle(ctx, raf.ID))
	assert.NoFileExists(t, localPath(e, updated.ImageURL))
	_, err = e.raffles.GetRaffle(ctx, raf.ID)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestRaffleService_RejectsBadImage(t *testing.T) {
	e := newEnv(t)
	_, err := e.raffles.CreateRaffle(context.Background(), RaffleInput{Name: "R", TicketPrice: 1, TotalTickets: 2},
		&File{Name: "virus.exe", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func localPath(e *env, url string) string {
	rel := url[strings.Index(url, "/storage/")+len("/storage/"):]
	return filepath.Join(e.files.Root(), filepath.FromSlash(rel))
}
