package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

// ErrDuplicateVenue is returned when a venue name is already taken.
var ErrDuplicateVenue = errors.New("venue name already exists")

// VenueRepository handles persistence for venues.
type VenueRepository struct {
	db *pgxpool.Pool
}

// NewVenueRepository constructs a VenueRepository.
func NewVenueRepository(db *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{db: db}
}

// Create inserts a new venue owned by the given admin.
func (r *VenueRepository) Create(ctx context.Context, name, location, adminID string) (*model.Venue, error) {
	venue := &model.Venue{
		ID:       uuid.New().String(),
		Name:     name,
		Location: location,
		AdminID:  adminID,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO venues (id, name, location, admin_id) VALUES ($1, $2, $3, $4)`,
		venue.ID, venue.Name, venue.Location, venue.AdminID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVenue
		}
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	return venue, nil
}

// List returns all venues ordered by name.
func (r *VenueRepository) List(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, location, admin_id FROM venues ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.AdminID); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}
