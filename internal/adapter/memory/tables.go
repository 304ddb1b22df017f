package memory

import (
	"context"

	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

// NewTables returns an empty in-memory database with the same unique
// constraints and defaults as the postgres schema.
func NewTables() database.Tables {
	active := database.Record{"is_active": true}
	return database.Tables{
		Tenants:     NewTable[tenant.Tenant]("tenants", WithUnique("domain"), WithDefaults(active)),
		Users:       NewTable[user.User]("users", WithUnique("email"), WithDefaults(active)),
		Buildings:   NewTable[building.Building]("buildings", WithDefaults(active)),
		Properties:  NewTable[property.Property]("properties", WithDefaults(database.Record{"is_active": true, "status": property.StatusAvailable})),
		Documents:   NewTable[property.Document]("property_documents"),
		Maintenance: NewTable[property.Maintenance]("property_maintenance"),
		Contracts:   NewTable[contract.Contract]("rental_contracts", WithDefaults(database.Record{"status": contract.StatusActive})),
		Payments:    NewTable[contract.Payment]("transactions"),
		AuditLogs:   NewTable[audit.Entry]("audit_logs"),
		Tx:          TxRunner{},
	}
}

// TxRunner runs fn directly. Each table operation is atomic on its own and
// the memory driver does not roll back earlier writes when fn fails.
type TxRunner struct{}

// InTx calls fn with ctx.
func (TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
