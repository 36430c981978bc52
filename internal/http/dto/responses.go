package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	Rule      string `json:"rule,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type ListResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
