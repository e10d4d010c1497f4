package repository

import (
	"context"
	"errors"
	"fmt"

	"event-marketplace/internal/data/entity"
	"event-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CatalogRepository is a read-only view of the vendor catalog.
type CatalogRepository interface {
	FindServiceByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	FindVendorContact(ctx context.Context, vendorID uuid.UUID) (*entity.VendorContact, error)
}

type catalogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCatalogRepository(db database.PgxIface, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (r *catalogRepository) FindServiceByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	query := `
		SELECT id, vendor_id, company_name, packages
		FROM services
		WHERE id = $1
	`

	var service entity.Service
	err := r.db.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.VendorID,
		&service.CompanyName,
		&service.Packages,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service by ID",
			zap.Error(err),
			zap.String("service_id", id.String()),
		)
		return nil, fmt.Errorf("find service by ID %s: %w", id.String(), err)
	}

	return &service, nil
}

func (r *catalogRepository) FindVendorContact(ctx context.Context, vendorID uuid.UUID) (*entity.VendorContact, error) {
	query := `SELECT id, phone, email FROM vendors WHERE id = $1`

	var contact entity.VendorContact
	err := r.db.QueryRow(ctx, query, vendorID).Scan(
		&contact.VendorID,
		&contact.Phone,
		&contact.Email,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find vendor contact",
			zap.Error(err),
			zap.String("vendor_id", vendorID.String()),
		)
		return nil, fmt.Errorf("find vendor contact %s: %w", vendorID.String(), err)
	}

	return &contact, nil
}
