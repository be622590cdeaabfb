package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'area_status') THEN
			CREATE TYPE area_status AS ENUM ('AVAILABLE', 'UNAVAILABLE', 'HIDDEN');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'cell_status') THEN
			CREATE TYPE cell_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED', 'HIDDEN');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'approval_status') THEN
			CREATE TYPE approval_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'approval_target_type') THEN
			CREATE TYPE approval_target_type AS ENUM ('CELL', 'POPUP');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'decision_type') THEN
			CREATE TYPE decision_type AS ENUM ('APPROVE', 'REJECT');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS regions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS zone_areas (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		region_id UUID REFERENCES regions(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		polygon_geojson TEXT NOT NULL,
		status area_status NOT NULL DEFAULT 'AVAILABLE',
		max_capacity INTEGER,
		notice TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_areas_region_id ON zone_areas (region_id);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_areas_status ON zone_areas (status);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_areas_name ON zone_areas (lower(name));`,
	`CREATE TABLE IF NOT EXISTS zone_cells (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		area_id UUID NOT NULL REFERENCES zone_areas(id) ON DELETE RESTRICT,
		owner_id UUID NOT NULL,
		label VARCHAR(255),
		detailed_address VARCHAR(500),
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		status cell_status NOT NULL DEFAULT 'PENDING',
		max_capacity INTEGER,
		notice TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_cells_area_id ON zone_cells (area_id);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_cells_owner_id ON zone_cells (owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_zone_cells_status ON zone_cells (status);`,
	`CREATE TABLE IF NOT EXISTS approval_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		target_type approval_target_type NOT NULL,
		target_id UUID NOT NULL,
		status approval_status NOT NULL DEFAULT 'PENDING',
		requester_id UUID NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		decision decision_type,
		reason VARCHAR(1000),
		processed_at TIMESTAMPTZ,
		decider_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_approval_records_target ON approval_records (target_type, target_id, requested_at);`,
	`CREATE INDEX IF NOT EXISTS idx_approval_records_status ON approval_records (status);`,
	// Invariant: at most one open record per target. The repository also checks
	// inside the transaction so callers get DUPLICATE_PENDING instead of a raw
	// constraint violation.
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_approval_records_open_target
		ON approval_records (target_type, target_id) WHERE status = 'PENDING';`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_zone_areas_updated_at') THEN
			CREATE TRIGGER trg_zone_areas_updated_at
				BEFORE UPDATE ON zone_areas
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_zone_cells_updated_at') THEN
			CREATE TRIGGER trg_zone_cells_updated_at
				BEFORE UPDATE ON zone_cells
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_approval_records_updated_at') THEN
			CREATE TRIGGER trg_approval_records_updated_at
				BEFORE UPDATE ON approval_records
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
