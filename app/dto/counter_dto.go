package dto

// CounterDTO is the current value of one code counter
type CounterDTO struct {
	Scope          string `json:"scope" example:"inventory"`
	Prefix         string `json:"prefix,omitempty" example:"ITEM"`
	Value          int64  `json:"value" example:"42"`
	ResetWhenEmpty bool   `json:"reset_when_empty" example:"false"`
	NextCode       string `json:"next_code,omitempty" example:"ITEM-043"`
}

type ListCountersResponse struct {
	Backend  string       `json:"backend" example:"postgres"`
	Counters []CounterDTO `json:"counters"`
}
