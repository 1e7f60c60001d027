package request

type SetQuoteTokenRequest struct {
	Token string `json:"token"`
}
