package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoData signals an empty sales history. It is a defined outcome, not a failure.
	ErrNoData = errors.New("no sales history")
	// ErrInvalidQuantity indicates a negative sale quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidDate indicates a missing or unparseable sale date.
	ErrInvalidDate = errors.New("invalid date")
)

// SaleObservation is a single sale event of a product on a calendar day.
type SaleObservation struct {
	ProductID string    `json:"product_id"`
	Date      time.Time `json:"date"`
	Quantity  int       `json:"quantity"`
}

// ProductHistory is everything the engine needs to forecast one product.
type ProductHistory struct {
	ProductID    string
	ProductName  string
	ReorderLevel *int
	Sales        []SaleObservation
}

// ValidationError reports an observation rejected at the series boundary.
type ValidationError struct {
	ProductID string
	Index     int
	Err       error
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("product %s, observation %d: %v: %s", e.ProductID, e.Index, e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseDay parses an ISO-8601 date or timestamp and truncates it to its UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, lastErr)
}

// ParseObservation builds an observation from wire values, rejecting bad dates and negative quantities.
func ParseObservation(productID, date string, quantity int) (SaleObservation, error) {
	day, err := ParseDay(date)
	if err != nil {
		return SaleObservation{}, &ValidationError{ProductID: productID, Index: -1, Err: ErrInvalidDate, Detail: err.Error()}
	}
	if quantity < 0 {
		return SaleObservation{}, &ValidationError{ProductID: productID, Index: -1, Err: ErrInvalidQuantity, Detail: fmt.Sprintf("quantity %d", quantity)}
	}
	return SaleObservation{ProductID: productID, Date: day, Quantity: quantity}, nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validate(obs []SaleObservation) error {
	for i, o := range obs {
		if o.Date.IsZero() {
			return &ValidationError{ProductID: o.ProductID, Index: i, Err: ErrInvalidDate, Detail: "missing date"}
		}
		if o.Quantity < 0 {
			return &ValidationError{ProductID: o.ProductID, Index: i, Err: ErrInvalidQuantity, Detail: fmt.Sprintf("quantity %d", o.Quantity)}
		}
	}
	return nil
}
