package request

type SetPriceOverrideRequest struct {
	Price float64 `json:"price"`
}
