package core

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"luxdrive/internal/db"
	"luxdrive/internal/models"
)

// catalogFile is the layout of configs/fleet.yaml.
type catalogFile struct {
	Cars []models.Car `yaml:"cars"`
}

// carService implements the CarService interface.
type carService struct {
	carRepo db.CarRepository
	logger  *zap.Logger
}

// NewCarService creates a new CarService instance.
func NewCarService(carRepo db.CarRepository, logger *zap.Logger) CarService {
	return &carService{carRepo: carRepo, logger: logger}
}

func (s *carService) List(ctx context.Context) ([]models.Car, error) {
	cars, err := s.carRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	if cars == nil {
		cars = []models.Car{}
	}
	return cars, nil
}

func (s *carService) SeedFromFile(ctx context.Context, path string) (int, error) {
	existing, err := s.carRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read current catalog: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("Catalog already present, skipping seed", zap.Int("cars", len(existing)))
		return 0, nil
	}

	cars, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}
	if err := s.carRepo.ReplaceAll(ctx, cars); err != nil {
		return 0, fmt.Errorf("failed to store catalog: %w", err)
	}
	s.logger.Info("Seeded car catalog", zap.String("path", path), zap.Int("cars", len(cars)))
	return len(cars), nil
}

// LoadCatalog reads and validates a YAML fleet file.
func LoadCatalog(path string) ([]models.Car, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog '%s': %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog '%s': %w", path, err)
	}
	for i, c := range file.Cars {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: catalog entry %d has no name", ErrValidation, i)
		}
		if c.Price <= 0 {
			return nil, fmt.Errorf("%w: car '%s' has no daily price", ErrValidation, c.Name)
		}
	}
	return file.Cars, nil
}
