package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// --- Core Models ---

// User represents a user in the system (Admin, Merchant, or Staff)
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	Phone      *string   `json:"phone,omitempty"`
	MerchantID *string   `json:"merchant_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaleLine is one row of sales history: a sale item joined to its sale and product.
type SaleLine struct {
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ReorderLevel *int      `json:"reorder_level,omitempty"`
	SaleDate     time.Time `json:"sale_date"`
	QuantitySold int       `json:"quantity_sold"`
}

// DemandForecast is a persisted row of demand_forecasts.
type DemandForecast struct {
	ID                string    `json:"id"`
	MerchantID        string    `json:"merchant_id"`
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	PredictedDemand   int       `json:"predicted_demand"`
	ConfidenceScore   float64   `json:"confidence_score"`
	ForecastDate      time.Time `json:"forecast_date"`
	ReorderLevel      *int      `json:"reorder_level,omitempty"`
	ReorderSuggestion int       `json:"reorder_suggestion"`
	CreatedAt         time.Time `json:"created_at"`
}
