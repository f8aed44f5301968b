package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// MaintenanceItem is a consumable part priced per replacement and worn
	// out after LifespanKm kilometres.
	MaintenanceItem struct {
		Price      float64 `json:"price" yaml:"price"`
		LifespanKm float64 `json:"lifespanKm" yaml:"lifespanKm"`
	}

	// FuelCost is expressed per litre; KmPerLiter plays the role of lifespan.
	FuelCost struct {
		PricePerLiter float64 `json:"pricePerLiter" yaml:"pricePerLiter"`
		KmPerLiter    float64 `json:"kmPerLiter" yaml:"kmPerLiter"`
	}

	// CostConfiguration is the single active pricing for one user. It is
	// replaced wholesale and applies retroactively to every entry.
	CostConfiguration struct {
		Oil       MaintenanceItem `json:"oil" yaml:"oil"`
		DriveKit  MaintenanceItem `json:"driveKit" yaml:"driveKit"`
		FrontTire MaintenanceItem `json:"frontTire" yaml:"frontTire"`
		RearTire  MaintenanceItem `json:"rearTire" yaml:"rearTire"`
		Fuel      FuelCost        `json:"fuel" yaml:"fuel"`
		Version   int64           `json:"version" yaml:"-"`
	}

	// Entry is one working day (or shift) as recorded by the courier.
	Entry struct {
		ID            string  `json:"id" yaml:"id"`
		Date          Date    `json:"date" yaml:"date"`
		OdometerStart float64 `json:"odometerStart" yaml:"odometerStart"`
		OdometerEnd   float64 `json:"odometerEnd" yaml:"odometerEnd"`
		FoodExpense   float64 `json:"foodExpense" yaml:"foodExpense"`
		OtherExpenses float64 `json:"otherExpenses" yaml:"otherExpenses"`
		GrossEarnings float64 `json:"grossEarnings" yaml:"grossEarnings"`
		Version       int64   `json:"version" yaml:"-"`
	}

	CostBreakdown struct {
		Distance          float64 `json:"distance"`
		MaintenanceCost   float64 `json:"maintenanceCost"`
		TotalExpense      float64 `json:"totalExpense"`
		NetProfit         float64 `json:"netProfit"`
		ExpensePercentage float64 `json:"expensePercentage"`
	}

	DashboardMetrics struct {
		TotalRevenue   float64 `json:"totalRevenue"`
		TotalExpenses  float64 `json:"totalExpenses"`
		TotalNetProfit float64 `json:"totalNetProfit"`
		TotalDistance  float64 `json:"totalDistance"`
	}

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrOdometerOrder      = errors.New("final odometer must not be lower than initial odometer")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUser        = errors.New("invalid user")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts the same YYYY-MM-DD form as JSON.
func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m MaintenanceItem) Validate() error {
	if m.Price < 0 || m.LifespanKm < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// AsItem exposes fuel through the same per-km rule as the other parts.
func (f FuelCost) AsItem() MaintenanceItem {
	return MaintenanceItem{Price: f.PricePerLiter, LifespanKm: f.KmPerLiter}
}

func (c CostConfiguration) Validate() error {
	for _, item := range c.Items() {
		if err := item.Item.Validate(); err != nil {
			return fmt.Errorf("%s: %w", item.Name, err)
		}
	}
	return nil
}

// Validate enforces the entry-creation invariants. The cost model itself
// never calls it.
func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.OdometerStart < 0 || e.OdometerEnd < 0 {
		return fmt.Errorf("odometer: %w", ErrNegativeAmount)
	}
	if e.OdometerEnd < e.OdometerStart {
		return ErrOdometerOrder
	}
	if e.FoodExpense < 0 {
		return fmt.Errorf("food expense: %w", ErrNegativeAmount)
	}
	if e.OtherExpenses < 0 {
		return fmt.Errorf("other expenses: %w", ErrNegativeAmount)
	}
	if e.GrossEarnings < 0 {
		return fmt.Errorf("gross earnings: %w", ErrNegativeAmount)
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrInvalidUser)
	}
	return nil
}

// IsValidationError reports whether err comes from one of the Validate methods.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrOdometerOrder) ||
		errors.Is(err, ErrInvalidUser)
}
