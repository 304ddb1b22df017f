package http

import (
	"net/http"
	"strings"

	"github.com/Strob0t/PropDesk/internal/domain/contract"
)

func parseContractFilter(r *http.Request) contract.ListFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	return contract.ListFilter{
		Search:     q.Get("search"),
		Status:     contract.Status(strings.ToUpper(q.Get("status"))),
		PropertyID: q.Get("property_id"),
		RenterID:   q.Get("renter_id"),
		Limit:      limit,
		Offset:     offset,
	}
}

// ListContracts handles GET /api/contracts
func (h *Handlers) ListContracts(w http.ResponseWriter, r *http.Request) {
	handleList(parseContractFilter, h.Contracts.List)(w, r)
}

// GetContract handles GET /api/contracts/{id}
func (h *Handlers) GetContract(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Contracts.Get, "contract not found")(w, r)
}

// CreateContract handles POST /api/contracts
func (h *Handlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Contracts.Create)(w, r)
}

// UpdateContract handles PUT /api/contracts/{id}
func (h *Handlers) UpdateContract(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Contracts.Update, "contract not found")(w, r)
}

// TerminateContract handles POST /api/contracts/{id}/terminate
func (h *Handlers) TerminateContract(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Contracts.Terminate, "contract not found")(w, r)
}

// DeleteContract handles DELETE /api/contracts/{id}
func (h *Handlers) DeleteContract(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Contracts.Delete, "contract not found")(w, r)
}

// ListPayments handles GET /api/contracts/{id}/payments
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	handleListByParam(h.Contracts.Payments, "contract not found")(w, r)
}

// AddPayment handles POST /api/contracts/{id}/payments
func (h *Handlers) AddPayment(w http.ResponseWriter, r *http.Request) {
	handleCreateUnder(h.bodyLimit(), h.Contracts.AddPayment, "contract not found")(w, r)
}
