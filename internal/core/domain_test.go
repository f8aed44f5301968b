package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`{"date":"2025-03-04","odometerEnd":12}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.Date.Equal(NewDate(2025, 3, 4).Time) {
		t.Fatalf("date = %v", e.Date)
	}
	b, err := json.Marshal(e.Date)
	if err != nil || string(b) != `"2025-03-04"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	if err := json.Unmarshal([]byte(`{"date":"04/03/2025"}`), &e); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Date: NewDate(2025, 1, 1), OdometerStart: 100, OdometerEnd: 100, GrossEarnings: 50}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"zero date", Entry{OdometerEnd: 1}, ErrInvalidDate},
		{"inverted odometer", Entry{Date: NewDate(2025, 1, 1), OdometerStart: 10, OdometerEnd: 5}, ErrOdometerOrder},
		{"negative food", Entry{Date: NewDate(2025, 1, 1), FoodExpense: -1}, ErrNegativeAmount},
		{"negative other", Entry{Date: NewDate(2025, 1, 1), OtherExpenses: -1}, ErrNegativeAmount},
		{"negative earnings", Entry{Date: NewDate(2025, 1, 1), GrossEarnings: -1}, ErrNegativeAmount},
		{"negative odometer", Entry{Date: NewDate(2025, 1, 1), OdometerStart: -5, OdometerEnd: 1}, ErrNegativeAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
			if !IsValidationError(err) {
				t.Fatalf("IsValidationError(%v) = false", err)
			}
		})
	}
}

func TestCostConfigurationValidate(t *testing.T) {
	if err := (CostConfiguration{}).Validate(); err != nil {
		t.Fatalf("zero configuration should be valid, got %v", err)
	}
	cfg := CostConfiguration{RearTire: MaintenanceItem{Price: -1, LifespanKm: 100}}
	if err := cfg.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	cfg = CostConfiguration{Fuel: FuelCost{PricePerLiter: 5, KmPerLiter: -2}}
	if err := cfg.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount for fuel, got %v", err)
	}
}

func TestUserValidate(t *testing.T) {
	if err := (User{Name: "Ana", Email: "ana@example.com"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (User{Name: " ", Email: "ana@example.com"}).Validate(); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if err := (User{Name: "Ana", Email: "nope"}).Validate(); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}
