package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

type WinnerService struct {
	winners repositories.WinnerRepository
	tickets repositories.TicketRepository
	log     *zap.SugaredLogger
}

func NewWinnerService(winners repositories.WinnerRepository, tickets repositories.TicketRepository, log *zap.SugaredLogger) *WinnerService {
	return &WinnerService{winners: winners, tickets: tickets, log: log}
}

func (s *WinnerService) ListWinners(ctx context.Context) ([]models.Winner, error) {
	return s.winners.FindAll(ctx)
}

// DeclareWinner records the holder of a paid ticket as a winner.
func (s *WinnerService) DeclareWinner(ctx context.Context, ticketID int64, prize string) (*models.Winner, error) {
	prize = strings.TrimSpace(prize)
	if prize == "" {
		return nil, invalid("indica el premio")
	}
	t, err := s.tickets.FindViewByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TicketPaid || t.PlayerID == nil {
		return nil, conflict("solo un ticket pagado puede ganar")
	}

	w := &models.Winner{
		RaffleID:     t.RaffleID,
		TicketID:     t.ID,
		PlayerID:     *t.PlayerID,
		Prize:        prize,
		TicketNumber: t.Number,
		RaffleName:   t.RaffleName,
		PlayerName:   t.PlayerName(),
	}
	if err := s.winners.Create(ctx, w); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflict("el ticket %s ya fue declarado ganador", t.Number)
		}
		return nil, err
	}
	s.log.Infow("winner declared", "winner_id", w.ID, "ticket_id", t.ID, "player_id", w.PlayerID)
	return w, nil
}

func (s *WinnerService) DeleteWinner(ctx context.Context, id int64) error {
	return s.winners.Delete(ctx, id)
}
