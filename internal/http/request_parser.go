// Package http provides HTTP server and handler implementations.
//
// This file decodes and validates request bodies and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"motocusto/internal/core"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads exactly one JSON value into dst. Unknown fields and
// trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// Amount accepts a JSON number or a string such as "12,50" or "R$ 1.234,56".
// An empty string or null is zero.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
		}
		if sanitizeInput(s) == "" {
			*a = 0
			return nil
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
	}
	*a = Amount(v)
	return nil
}

// entryRequest mirrors the entry JSON so a fetched entry can be sent back
// as is. ID and Version are read but ignored: the path names the entry and
// the store assigns versions.
type entryRequest struct {
	ID            string    `json:"id"`
	Version       int64     `json:"version"`
	Date          core.Date `json:"date"`
	OdometerStart Amount    `json:"odometerStart"`
	OdometerEnd   Amount    `json:"odometerEnd"`
	FoodExpense   Amount    `json:"foodExpense"`
	OtherExpenses Amount    `json:"otherExpenses"`
	GrossEarnings Amount    `json:"grossEarnings"`
}

func (req entryRequest) toEntry(id string) core.Entry {
	return core.Entry{
		ID:            id,
		Date:          req.Date,
		OdometerStart: float64(req.OdometerStart),
		OdometerEnd:   float64(req.OdometerEnd),
		FoodExpense:   float64(req.FoodExpense),
		OtherExpenses: float64(req.OtherExpenses),
		GrossEarnings: float64(req.GrossEarnings),
	}
}

type itemRequest struct {
	Price      Amount `json:"price"`
	LifespanKm Amount `json:"lifespanKm"`
}

func (req itemRequest) toItem() core.MaintenanceItem {
	return core.MaintenanceItem{Price: float64(req.Price), LifespanKm: float64(req.LifespanKm)}
}

type fuelRequest struct {
	PricePerLiter Amount `json:"pricePerLiter"`
	KmPerLiter    Amount `json:"kmPerLiter"`
}

// configurationRequest accepts the body returned by GET /api/settings.
// Version is ignored.
type configurationRequest struct {
	Oil       itemRequest `json:"oil"`
	DriveKit  itemRequest `json:"driveKit"`
	FrontTire itemRequest `json:"frontTire"`
	RearTire  itemRequest `json:"rearTire"`
	Fuel      fuelRequest `json:"fuel"`
	Version   int64       `json:"version"`
}

func (req configurationRequest) toConfiguration() core.CostConfiguration {
	return core.CostConfiguration{
		Oil:       req.Oil.toItem(),
		DriveKit:  req.DriveKit.toItem(),
		FrontTire: req.FrontTire.toItem(),
		RearTire:  req.RearTire.toItem(),
		Fuel: core.FuelCost{
			PricePerLiter: float64(req.Fuel.PricePerLiter),
			KmPerLiter:    float64(req.Fuel.KmPerLiter),
		},
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ParseDayParam reads a YYYY-MM-DD query parameter. A missing value means
// the current day in UTC.
func ParseDayParam(r *http.Request, key string, now func() time.Time) (core.Date, error) {
	raw := sanitizeInput(r.URL.Query().Get(key))
	if raw == "" {
		t := now().UTC()
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return core.ParseDate(raw)
}
