package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"parkspot/internal/model"
	"parkspot/internal/repository"
	"parkspot/internal/service"
)

// Fixtures is the seed document.
type Fixtures struct {
	Users []UserFixture `json:"users"`
	Spots []SpotFixture `json:"spots"`
}

// UserFixture describes a demo account.
type UserFixture struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
}

// SpotFixture describes a demo spot owned by the user with OwnerEmail.
type SpotFixture struct {
	OwnerEmail     string           `json:"ownerEmail"`
	Title          string           `json:"title"`
	Description    *string          `json:"description"`
	Address        string           `json:"address"`
	Latitude       float64          `json:"latitude"`
	Longitude      float64          `json:"longitude"`
	AvailableSpots *int             `json:"availableSpots"`
	TotalSpots     *int             `json:"totalSpots"`
	PricePerHour   *decimal.Decimal `json:"pricePerHour"`
	SpotType       model.SpotType   `json:"spotType"`
	Amenities      []string         `json:"amenities"`
}

type seedStats struct {
	UsersCreated  int
	UsersExisting int
	SpotsCreated  int
	SpotsExisting int
}

type seeder struct {
	users repository.UserRepository
	auth  service.AuthService
	spots service.SpotService
	log   *zap.Logger
}

// fixtureClient fetches remote fixture documents.
var fixtureClient = &http.Client{Timeout: 30 * time.Second}

// loadFixtures reads the document from a local file or an http(s) URL.
func loadFixtures(source string) (*Fixtures, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := fixtureClient.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch fixtures: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch fixtures: status code %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open fixtures: %w", err)
		}
		r = f
	}
	defer r.Close()

	var fixtures Fixtures
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fixtures, nil
}

// run creates missing users, then the spots of each owner. A spot is
// skipped when its owner already has one with the same title.
func (s *seeder) run(ctx context.Context, fixtures *Fixtures) (seedStats, error) {
	var stats seedStats

	for _, u := range fixtures.Users {
		_, err := s.users.FindByEmail(ctx, u.Email)
		if err == nil {
			stats.UsersExisting++
			continue
		}
		if !stderrors.Is(err, repository.ErrNotFound) {
			return stats, fmt.Errorf("check user %s: %w", u.Email, err)
		}
		if _, _, err := s.auth.Register(ctx, u.Name, u.Email, u.Password, null.StringFromPtr(u.Phone)); err != nil {
			return stats, fmt.Errorf("register %s: %w", u.Email, err)
		}
		stats.UsersCreated++
	}

	titles := make(map[uuid.UUID]map[string]bool)
	for _, f := range fixtures.Spots {
		owner, err := s.users.FindByEmail(ctx, f.OwnerEmail)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				s.log.Warn("spot owner missing, skipping", zap.String("owner", f.OwnerEmail), zap.String("title", f.Title))
				continue
			}
			return stats, fmt.Errorf("find owner %s: %w", f.OwnerEmail, err)
		}

		owned, ok := titles[owner.ID]
		if !ok {
			existing, err := s.spots.ListOwnedSpots(ctx, owner.ID)
			if err != nil {
				return stats, err
			}
			owned = make(map[string]bool, len(existing))
			for _, spot := range existing {
				owned[spot.Title] = true
			}
			titles[owner.ID] = owned
		}
		if owned[f.Title] {
			stats.SpotsExisting++
			continue
		}

		if _, err := s.spots.CreateSpot(ctx, owner.ID, service.SpotInput{
			Title:          f.Title,
			Description:    null.StringFromPtr(f.Description),
			Address:        f.Address,
			Latitude:       f.Latitude,
			Longitude:      f.Longitude,
			AvailableSpots: f.AvailableSpots,
			TotalSpots:     f.TotalSpots,
			PricePerHour:   f.PricePerHour,
			SpotType:       f.SpotType,
			Amenities:      model.Tags(f.Amenities),
		}); err != nil {
			return stats, fmt.Errorf("create spot %q: %w", f.Title, err)
		}
		owned[f.Title] = true
		stats.SpotsCreated++
	}

	return stats, nil
}
