package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

// NewTables returns repositories for every table in the schema.
func NewTables(pool *pgxpool.Pool) database.Tables {
	return database.Tables{
		Tenants:     NewTable[tenant.Tenant](pool, "tenants"),
		Users:       NewTable[user.User](pool, "users"),
		Buildings:   NewTable[building.Building](pool, "buildings"),
		Properties:  NewTable[property.Property](pool, "properties"),
		Documents:   NewTable[property.Document](pool, "property_documents"),
		Maintenance: NewTable[property.Maintenance](pool, "property_maintenance"),
		Contracts:   NewTable[contract.Contract](pool, "rental_contracts"),
		Payments:    NewTable[contract.Payment](pool, "transactions"),
		AuditLogs:   NewTable[audit.Entry](pool, "audit_logs"),
		Tx:          TxRunner{pool: pool},
	}
}
