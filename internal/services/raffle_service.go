package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
	"rifas-admin/internal/storage"
)

const MaxTicketsPerRaffle = 10000

// Uploader is the object store as seen by the services.
type Uploader interface {
	Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error)
	Remove(publicURL string) error
}

// File is an optional upload coming from a form.
type File struct {
	Name string
	Body io.Reader
}

type RaffleInput struct {
	Name         string
	Description  string
	TicketPrice  float64
	TotalTickets int
	StartsAt     *time.Time
	EndsAt       *time.Time
	Prizes       []models.PrizeTier
	Category     string
	Rules        string
}

type RaffleService struct {
	raffles repositories.RaffleRepository
	files   Uploader
	log     *zap.SugaredLogger
}

func NewRaffleService(raffles repositories.RaffleRepository, files Uploader, log *zap.SugaredLogger) *RaffleService {
	return &RaffleService{raffles: raffles, files: files, log: log}
}

func (s *RaffleService) ListRaffles(ctx context.Context) ([]models.Raffle, error) {
	return s.raffles.FindAll(ctx)
}

func (s *RaffleService) ActiveRaffles(ctx context.Context) ([]models.Raffle, error) {
	return s.raffles.FindByStatus(ctx, models.RaffleActive)
}

func (s *RaffleService) GetRaffle(ctx context.Context, id int64) (*models.Raffle, error) {
	return s.raffles.FindByID(ctx, id)
}

func (in *RaffleInput) validate(creating bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return invalid("el nombre es obligatorio")
	}
	if in.TicketPrice <= 0 {
		return invalid("el precio del ticket debe ser mayor que cero")
	}
	if creating && (in.TotalTickets < 1 || in.TotalTickets > MaxTicketsPerRaffle) {
		return invalid("la cantidad de tickets debe estar entre 1 y %d", MaxTicketsPerRaffle)
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return invalid("la fecha de cierre debe ser posterior a la de inicio")
	}
	seen := map[int]bool{}
	for _, p := range in.Prizes {
		if p.Position < 1 {
			return invalid("posición de premio inválida")
		}
		if seen[p.Position] {
			return invalid("posición de premio repetida: %d", p.Position)
		}
		seen[p.Position] = true
	}
	return nil
}

// TicketNumbers pads 0..total-1 to the width of the largest number:
// 100 tickets give 00-99, 1000 give 000-999.
func TicketNumbers(total int) []string {
	if total <= 0 {
		return nil
	}
	width := len(strconv.Itoa(total - 1))
	numbers := make([]string, total)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("%0*d", width, i)
	}
	return numbers
}

func (s *RaffleService) uploadImage(ctx context.Context, image *File) (string, error) {
	if image == nil || image.Body == nil {
		return "", nil
	}
	url, err := s.files.Upload(ctx, storage.BucketRaffles, image.Name, image.Body)
	if err != nil {
		return "", invalid("imagen: %v", err)
	}
	return url, nil
}

func (s *RaffleService) dropImage(url string) {
	if url == "" {
		return
	}
	if err := s.files.Remove(url); err != nil {
		s.log.Warnw("could not remove raffle image", "url", url, "error", err)
	}
}

// CreateRaffle stores the raffle with all of its tickets available.
func (s *RaffleService) CreateRaffle(ctx context.Context, in RaffleInput, image *File) (*models.Raffle, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	imageURL, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	raf := &models.Raffle{
		Name:         in.Name,
		Description:  in.Description,
		TicketPrice:  in.TicketPrice,
		TotalTickets: in.TotalTickets,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Prizes:       in.Prizes,
		Category:     in.Category,
		Rules:        in.Rules,
		ImageURL:     imageURL,
		Status:       models.RaffleActive,
	}
	if err := s.raffles.Create(ctx, raf, TicketNumbers(in.TotalTickets)); err != nil {
		s.dropImage(imageURL)
		return nil, err
	}
	s.log.Infow("raffle created", "raffle_id", raf.ID, "tickets", raf.TotalTickets)
	return raf, nil
}

// UpdateRaffle edits everything but the ticket count.
func (s *RaffleService) UpdateRaffle(ctx context.Context, id int64, in RaffleInput, image *File) (*models.Raffle, error) {
	raf, err := s.raffles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}
	imageURL, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	oldImage := raf.ImageURL
	raf.Name = in.Name
	raf.Description = in.Description
	raf.TicketPrice = in.TicketPrice
	raf.StartsAt = in.StartsAt
	raf.EndsAt = in.EndsAt
	raf.Prizes = in.Prizes
	raf.Category = in.Category
	raf.Rules = in.Rules
	if imageURL != "" {
		raf.ImageURL = imageURL
	}

	if err := s.raffles.Update(ctx, raf); err != nil {
		s.dropImage(imageURL)
		return nil, err
	}
	if imageURL != "" {
		s.dropImage(oldImage)
	}
	return raf, nil
}

func (s *RaffleService) FinishRaffle(ctx context.Context, id int64) error {
	if err := s.raffles.UpdateStatus(ctx, id, models.RaffleFinished); err != nil {
		return err
	}
	s.log.Infow("raffle finished", "raffle_id", id)
	return nil
}

// DeleteRaffle removes the raffle with its tickets, requests and winners.
func (s *RaffleService) DeleteRaffle(ctx context.Context, id int64) error {
	raf, err := s.raffles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.raffles.Delete(ctx, id); err != nil {
		return err
	}
	s.dropImage(raf.ImageURL)
	s.log.Infow("raffle deleted", "raffle_id", id)
	return nil
}
