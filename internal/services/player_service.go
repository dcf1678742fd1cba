package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

var playerSortKeys = listing.Keys[models.PlayerSummary]{
	"nombre": listing.NameKey(
		func(p models.PlayerSummary) string { return p.FirstName },
		func(p models.PlayerSummary) string { return p.LastName }),
	"tickets": {Number: func(p models.PlayerSummary) float64 { return float64(p.TotalTickets) }},
	"gastado": {Number: func(p models.PlayerSummary) float64 { return p.TotalSpent }},
	"estado":  {Text: func(p models.PlayerSummary) string { return string(p.Status) }},
	"fecha":   {Number: func(p models.PlayerSummary) float64 { return float64(p.CreatedAt.Unix()) }},
}

func playerFields(p models.PlayerSummary) []string {
	return []string{p.FirstName, p.LastName, p.Email, p.Phone, p.NationalID, p.FavoriteNumbers}
}

type PlayerService struct {
	players repositories.PlayerRepository
	tickets repositories.TicketRepository
	winners repositories.WinnerRepository
	log     *zap.SugaredLogger
}

func NewPlayerService(players repositories.PlayerRepository, tickets repositories.TicketRepository,
	winners repositories.WinnerRepository, log *zap.SugaredLogger) *PlayerService {
	return &PlayerService{players: players, tickets: tickets, winners: winners, log: log}
}

// Summaries returns every player, ghosts included, with derived status.
func (s *PlayerService) Summaries(ctx context.Context) ([]models.PlayerSummary, error) {
	players, err := s.players.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.FindViews(ctx, repositories.TicketFilter{})
	if err != nil {
		return nil, err
	}
	winners, err := s.winners.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSummaries(players, tickets, winners), nil
}

func (s *PlayerService) ListPlayers(ctx context.Context, q listing.Query) (listing.Page[models.PlayerSummary], error) {
	all, err := s.Summaries(ctx)
	if err != nil {
		return listing.Page[models.PlayerSummary]{}, err
	}
	return listing.Apply(all, q, playerFields, playerSortKeys, listing.PlayersPageSize), nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return s.players.FindByID(ctx, id)
}

func validatePlayer(p *models.Player) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.FavoriteNumbers = strings.TrimSpace(p.FavoriteNumbers)
	if p.FirstName == "" {
		return invalid("el nombre es obligatorio")
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return invalid("email inválido")
	}
	return nil
}

func (s *PlayerService) CreatePlayer(ctx context.Context, p *models.Player) error {
	if err := validatePlayer(p); err != nil {
		return err
	}
	if err := s.players.Create(ctx, p); err != nil {
		return err
	}
	s.log.Infow("player created", "player_id", p.ID)
	return nil
}

func (s *PlayerService) UpdatePlayer(ctx context.Context, p *models.Player) error {
	if err := validatePlayer(p); err != nil {
		return err
	}
	return s.players.Update(ctx, p)
}

// DeletePlayer keeps the player's tickets; they show up as a ghost afterwards.
func (s *PlayerService) DeletePlayer(ctx context.Context, id int64) error {
	if err := s.players.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("player deleted", "player_id", id)
	return nil
}
