package database

import (
	"context"
	"fmt"
)

// The catalog, vendor, user and session tables belong to collaborating
// services; they are created here only so a fresh database is usable.
var migrations = []struct {
	name string
	sql  string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    role TEXT NOT NULL DEFAULT 'customer',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{"sessions", `
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    token UUID NOT NULL UNIQUE,
    user_agent TEXT,
    ip_address TEXT,
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{"vendors", `
CREATE TABLE IF NOT EXISTS vendors (
    id UUID PRIMARY KEY,
    phone TEXT NOT NULL,
    email TEXT NOT NULL
)`},
	{"services", `
CREATE TABLE IF NOT EXISTS services (
    id UUID PRIMARY KEY,
    vendor_id UUID NOT NULL REFERENCES vendors(id),
    company_name TEXT NOT NULL,
    packages JSONB NOT NULL DEFAULT '[]'::jsonb
)`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    order_id TEXT NOT NULL UNIQUE,
    customer_id UUID NOT NULL,
    customer_name TEXT NOT NULL,
    customer_email TEXT NOT NULL,
    customer_phone TEXT NOT NULL DEFAULT '',
    service_id UUID NOT NULL,
    vendor_id UUID NOT NULL,
    selected_package JSONB NOT NULL,
    total_price BIGINT NOT NULL CHECK (total_price >= 0),
    advance_payment BIGINT NOT NULL CHECK (advance_payment >= 0),
    remaining_payment BIGINT NOT NULL CHECK (remaining_payment >= 0),
    event_date DATE NOT NULL,
    event_address TEXT NOT NULL,
    event_city TEXT NOT NULL,
    special_requests TEXT,
    booking_status TEXT NOT NULL,
    advance_paid BOOLEAN NOT NULL DEFAULT FALSE,
    transaction_id TEXT,
    advance_paid_at TIMESTAMPTZ,
    gateway_reference TEXT,
    vendor_contact_shared BOOLEAN NOT NULL DEFAULT FALSE,
    cancellation_reason TEXT,
    cancelled_by TEXT,
    rejection_reason TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT bookings_split_check CHECK (advance_payment + remaining_payment = total_price),
    CONSTRAINT bookings_contact_requires_payment CHECK (NOT vendor_contact_shared OR advance_paid)
)`},
	{"bookings_transaction_id_key", `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_transaction_id_key
    ON bookings (transaction_id) WHERE transaction_id IS NOT NULL`},
	{"bookings_customer_idx", `
CREATE INDEX IF NOT EXISTS bookings_customer_idx ON bookings (customer_id, created_at DESC)`},
	{"bookings_status_idx", `
CREATE INDEX IF NOT EXISTS bookings_status_idx ON bookings (booking_status, created_at DESC)`},
	{"gateway_callbacks", `
CREATE TABLE IF NOT EXISTS gateway_callbacks (
    id UUID PRIMARY KEY,
    provider TEXT NOT NULL,
    event_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    booking_id UUID,
    payload JSONB NOT NULL,
    signature_valid BOOLEAN NOT NULL DEFAULT FALSE,
    outcome TEXT,
    processing_error TEXT,
    processed_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT gateway_callbacks_provider_event_key UNIQUE (provider, event_id)
)`},
}

// RunMigrations creates any missing tables and indexes.
func RunMigrations(ctx context.Context, db PgxIface) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}
