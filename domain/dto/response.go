package dto

// Res is the envelope returned when a request is rejected before reaching a handler.
type Res struct {
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
}
