package transport

import "github.com/google/uuid"

type CatalogPriceResponse struct {
	ID            uuid.UUID `json:"id"`
	Model         string    `json:"model"`
	CashPrice     float64   `json:"cashPrice"`
	CashPriceText string    `json:"cashPriceText"`
	Active        bool      `json:"active"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

type CatalogPriceListResponse struct {
	Items []CatalogPriceResponse `json:"items"`
}

type CreatePriceRequest struct {
	Model     string  `json:"model" validate:"required,min=1,max=100"`
	CashPrice float64 `json:"cashPrice" validate:"required,gt=0"`
}

type UpdatePriceRequest struct {
	Model     *string  `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	CashPrice *float64 `json:"cashPrice,omitempty" validate:"omitempty,gt=0"`
	Active    *bool    `json:"active,omitempty"`
}
