package services

import (
	"github.com/shopspring/decimal"

	"rifas-admin/internal/models"
)

// DeriveStatus picks a player's status from its tickets. Priority: winner,
// all tickets paid, something pending in an active raffle, nothing.
func DeriveStatus(tickets []models.TicketView, winner bool) (models.PlayerStatus, string) {
	if winner {
		return models.StatusWinner, models.LabelWinner
	}
	if len(tickets) > 0 && allPaid(tickets) {
		return models.StatusActive, models.LabelPaid
	}
	for _, t := range tickets {
		if t.RaffleStatus == models.RaffleActive && (t.Status == models.TicketReserved || t.Status == models.TicketPartial) {
			return models.StatusInactive, models.LabelToPay
		}
	}
	return models.StatusInactive, models.LabelNoTickets
}

func allPaid(tickets []models.TicketView) bool {
	for _, t := range tickets {
		if t.Status != models.TicketPaid {
			return false
		}
	}
	return true
}

// BuildSummaries joins players with their tickets and winner records. Tickets
// whose player row is gone produce one ghost summary per missing player id,
// built from the ticket's player columns.
func BuildSummaries(players []models.Player, tickets []models.TicketView, winners []models.Winner) []models.PlayerSummary {
	byPlayer := map[int64][]models.TicketView{}
	for _, t := range tickets {
		if t.PlayerID != nil {
			byPlayer[*t.PlayerID] = append(byPlayer[*t.PlayerID], t)
		}
	}
	won := map[int64]bool{}
	for _, w := range winners {
		won[w.PlayerID] = true
	}

	known := make(map[int64]bool, len(players))
	out := make([]models.PlayerSummary, 0, len(players))
	for _, p := range players {
		known[p.ID] = true
		out = append(out, summarize(p, false, byPlayer[p.ID], won[p.ID]))
	}

	for _, t := range tickets {
		if t.PlayerID == nil || known[*t.PlayerID] {
			continue
		}
		id := *t.PlayerID
		known[id] = true
		ghost := models.Player{
			ID:         id,
			FirstName:  t.PlayerFirstName,
			LastName:   t.PlayerLastName,
			Email:      t.PlayerEmail,
			Phone:      t.PlayerPhone,
			NationalID: t.PlayerNationalID,
			CreatedAt:  t.CreatedAt,
		}
		out = append(out, summarize(ghost, true, byPlayer[id], won[id]))
	}
	return out
}

func summarize(p models.Player, ghost bool, tickets []models.TicketView, winner bool) models.PlayerSummary {
	status, label := DeriveStatus(tickets, winner)
	spent := decimal.Zero
	for _, t := range tickets {
		if t.Status == models.TicketPaid {
			spent = spent.Add(decimal.NewFromFloat(t.Price))
		}
	}
	return models.PlayerSummary{
		Player:       p,
		Ghost:        ghost,
		Status:       status,
		StatusLabel:  label,
		TotalTickets: len(tickets),
		TotalSpent:   spent.Round(2).InexactFloat64(),
	}
}
