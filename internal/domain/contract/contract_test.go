package contract

import (
	"testing"
	"time"
)

func TestCreateRequest_Validate(t *testing.T) {
	base := func() CreateRequest {
		return CreateRequest{
			Title: "Flat 3", PropertyID: "p1", RenterID: "u1",
			MonthlyRent: 900, PaymentDay: 5, PaymentMethod: PaymentBankTransfer,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr string
	}{
		{name: "valid with default dates", mutate: func(*CreateRequest) {}},
		{name: "missing title", mutate: func(r *CreateRequest) { r.Title = "" }, wantErr: "title is required"},
		{name: "missing property", mutate: func(r *CreateRequest) { r.PropertyID = "" }, wantErr: "property_id is required"},
		{name: "zero rent", mutate: func(r *CreateRequest) { r.MonthlyRent = 0 }, wantErr: "monthly_rent must be positive"},
		{name: "payment day out of range", mutate: func(r *CreateRequest) { r.PaymentDay = 32 }, wantErr: "payment_day must be between 1 and 31"},
		{name: "unknown method", mutate: func(r *CreateRequest) { r.PaymentMethod = "BARTER" }, wantErr: "invalid payment_method"},
		{name: "end before start", mutate: func(r *CreateRequest) {
			r.StartDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			r.EndDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}, wantErr: "end_date must be after start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !req.EndDate.After(req.StartDate) {
					t.Fatalf("default dates not filled: %v..%v", req.StartDate, req.EndDate)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestAddPaymentRequest_Validate(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	req := AddPaymentRequest{Amount: 900, PaymentMethod: PaymentCash, PeriodStartDate: start, PeriodEndDate: start.AddDate(0, 1, -1)}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.PaymentDate.IsZero() {
		t.Fatal("payment date should default to now")
	}

	req.PeriodEndDate = start.AddDate(0, 0, -1)
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for inverted period")
	}
}

func TestUpdateRequest_NotesOnly(t *testing.T) {
	notes := "keys returned"
	rent := 1000.0
	if !(&UpdateRequest{Notes: &notes}).NotesOnly() {
		t.Error("notes alone should be notes-only")
	}
	if (&UpdateRequest{Notes: &notes, MonthlyRent: &rent}).NotesOnly() {
		t.Error("rent change is not notes-only")
	}
	for s, want := range map[Status]bool{StatusActive: false, StatusRenewed: false, StatusTerminated: true, StatusExpired: true} {
		if got := s.Ended(); got != want {
			t.Errorf("%s.Ended() = %v, want %v", s, got, want)
		}
	}
}
