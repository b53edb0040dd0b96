package models

// Requests for the dashboard HTTP endpoints. Defined in domain for
// consistency and reuse.

type SignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"200" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type WhaleRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"60" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}
