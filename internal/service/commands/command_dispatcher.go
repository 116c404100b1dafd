package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
	"github.com/agrocampo/campo-backend/internal/service/load"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrUnknownSender indicates the sender's phone is not linked to any farm.
var ErrUnknownSender = errors.New("sender not linked to a farm")

const dateFormat = "2006-01-02"

// Store defines the persistence operations the dispatcher requires.
type Store interface {
	FindFarmByPhone(ctx context.Context, phone string) (*models.Farm, error)
	FindPastureByName(ctx context.Context, farmID primitive.ObjectID, name string) (*models.Pasture, error)
	FindAnimalLots(ctx context.Context, farmID primitive.ObjectID, category string, filter models.BatchFilter) ([]models.AnimalLot, error)
	InsertAnimalLot(ctx context.Context, lot models.AnimalLot) error
	DecrementAnimalLot(ctx context.Context, lotID primitive.ObjectID, sold int) error
	InsertExpense(ctx context.Context, expense models.ExpenseRecord) error
}

// LoadReporter exposes the current-load figures the bot can answer with.
type LoadReporter interface {
	AggregateUG(ctx context.Context, farmID, pastureID primitive.ObjectID) (float64, error)
}

// Dispatcher executes parsed commands on behalf of a WhatsApp sender.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	store  Store
	loads  LoadReporter
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(store Store, loads LoadReporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		loads:  loads,
		logger: logger,
		now:    time.Now,
	}
}

// HandleCommand resolves the sender's farm, executes the command against it
// and returns the confirmation text to send back.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	farm, err := s.store.FindFarmByPhone(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSender, sender)
	}

	s.logger.Debug("dispatching command",
		zap.String("command", string(cmd.Type)),
		zap.String("sender", sender),
		zap.String("farm_id", farm.ID.Hex()),
		zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandAnimals:
		return s.handleAnimals(ctx, farm.ID, cmd)
	case models.CommandSale:
		return s.handleSale(ctx, farm.ID, cmd)
	case models.CommandExpense:
		return s.handleExpense(ctx, farm.ID, cmd)
	case models.CommandLoad:
		return s.handleLoad(ctx, farm.ID, cmd)
	default:
		return "", ErrUnsupportedCommand
	}
}

// handleAnimals registers a new animal lot: /animales <cantidad> <categoria> <potrero>.
func (s *Service) handleAnimals(ctx context.Context, farmID primitive.ObjectID, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", ErrInvalidArguments
	}

	count, err := strconv.Atoi(cmd.Args[0])
	if err != nil || count <= 0 {
		return "", ErrInvalidArguments
	}

	category, rest, err := parseCategory(cmd.Args[1:])
	if err != nil {
		return "", err
	}
	if len(rest) == 0 {
		return "", ErrInvalidArguments
	}

	pasture, err := s.store.FindPastureByName(ctx, farmID, strings.Join(rest, " "))
	if err != nil {
		return "", fmt.Errorf("pasture %q: %w", strings.Join(rest, " "), err)
	}

	now := s.now().UTC()
	lot := models.AnimalLot{
		FarmID:     farmID,
		PastureID:  pasture.ID,
		Category:   category,
		Count:      count,
		IntakeDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.InsertAnimalLot(ctx, lot); err != nil {
		return "", err
	}

	return fmt.Sprintf("Registrado: %d %s en %s (%s).", count, category, pasture.Name, now.Format(dateFormat)), nil
}

// handleSale decrements a lot after a sale: /venta <cantidad> <categoria> <potrero>.
func (s *Service) handleSale(ctx context.Context, farmID primitive.ObjectID, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", ErrInvalidArguments
	}

	count, err := strconv.Atoi(cmd.Args[0])
	if err != nil || count <= 0 {
		return "", ErrInvalidArguments
	}

	category, rest, err := parseCategory(cmd.Args[1:])
	if err != nil {
		return "", err
	}
	if len(rest) == 0 {
		return "", ErrInvalidArguments
	}

	pasture, err := s.store.FindPastureByName(ctx, farmID, strings.Join(rest, " "))
	if err != nil {
		return "", fmt.Errorf("pasture %q: %w", strings.Join(rest, " "), err)
	}

	pastureID := pasture.ID
	lots, err := s.store.FindAnimalLots(ctx, farmID, category, models.BatchFilter{PastureID: &pastureID})
	if err != nil {
		return "", err
	}
	if len(lots) == 0 {
		return "", fmt.Errorf("no %s in pasture %s: %w", category, pasture.Name, ErrInvalidArguments)
	}

	lot := lots[0]
	if lot.Count < count {
		return "", fmt.Errorf("only %d %s available in %s: %w", lot.Count, category, pasture.Name, ErrInvalidArguments)
	}

	if err := s.store.DecrementAnimalLot(ctx, lot.ID, count); err != nil {
		return "", err
	}

	remaining := lot.Count - count
	return fmt.Sprintf("Venta registrada: %d %s de %s. Quedan %d.", count, category, pasture.Name, remaining), nil
}

// handleExpense logs an expense: /gasto <monto> <concepto...>.
func (s *Service) handleExpense(ctx context.Context, farmID primitive.ObjectID, cmd models.Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", ErrInvalidArguments
	}

	amount, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil || amount <= 0 {
		return "", ErrInvalidArguments
	}

	label := strings.Join(cmd.Args[1:], " ")
	now := s.now().UTC()

	if err := s.store.InsertExpense(ctx, models.ExpenseRecord{
		FarmID: farmID,
		Date:   now,
		Label:  label,
		Amount: amount,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("Gasto registrado: %s %.2f (%s).", label, amount, now.Format(dateFormat)), nil
}

// handleLoad answers the current grazing load of a pasture: /carga <potrero>.
func (s *Service) handleLoad(ctx context.Context, farmID primitive.ObjectID, cmd models.Command) (string, error) {
	if len(cmd.Args) == 0 {
		return "", ErrInvalidArguments
	}

	name := strings.Join(cmd.Args, " ")
	pasture, err := s.store.FindPastureByName(ctx, farmID, name)
	if err != nil {
		return "", fmt.Errorf("pasture %q: %w", name, err)
	}

	ug, err := s.loads.AggregateUG(ctx, farmID, pasture.ID)
	if err != nil {
		return "", err
	}

	if pasture.Hectares > 0 {
		perHectare := load.Round2(ug / pasture.Hectares)
		return fmt.Sprintf("Carga de %s: %.2f UG (%.2f UG/ha en %.1f ha).", pasture.Name, ug, perHectare, pasture.Hectares), nil
	}
	return fmt.Sprintf("Carga de %s: %.2f UG.", pasture.Name, ug), nil
}

// parseCategory consumes one or two leading tokens as a known category name
// (two-token categories like "novillos 1-2" first) and returns the
// remaining tokens.
func parseCategory(tokens []string) (string, []string, error) {
	if len(tokens) >= 2 {
		if category, ok := load.CanonicalCategory(tokens[0] + " " + tokens[1]); ok {
			return category, tokens[2:], nil
		}
	}
	if len(tokens) >= 1 {
		if category, ok := load.CanonicalCategory(tokens[0]); ok {
			return category, tokens[1:], nil
		}
	}
	return "", nil, fmt.Errorf("unknown category: %w", ErrInvalidArguments)
}
