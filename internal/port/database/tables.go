package database

import (
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
)

// Tables bundles the repositories of every persisted entity type.
// Tenants is system-owned; all others are tenant-owned and reach services
// only through a tenant gateway.
type Tables struct {
	Tenants     Repository[tenant.Tenant]
	Users       Repository[user.User]
	Buildings   Repository[building.Building]
	Properties  Repository[property.Property]
	Documents   Repository[property.Document]
	Maintenance Repository[property.Maintenance]
	Contracts   Repository[contract.Contract]
	Payments    Repository[contract.Payment]
	AuditLogs   Repository[audit.Entry]

	Tx TxRunner
}
