// Package tenancy isolates tenant data.
//
// A request passes through four pieces, in order:
//
//   - Resolver picks the effective tenant from the selector header, the
//     principal's home tenant, or the request host.
//   - ValidateAccess and Validator decide whether a principal may touch a
//     tenant's data. Administrators may cross tenants; the crossing is logged.
//   - RequestContext carries the principal, the resolved tenant and the
//     pipeline stage for the lifetime of one request.
//   - Gateway wraps a database.Repository so every query is filtered by, and
//     every insert stamped with, a single tenant id.
package tenancy
