package model

// CentrifugoPublishRequest is the body of Centrifugo's HTTP publish call.
type CentrifugoPublishRequest struct {
	Channel        string            `json:"channel"`
	Data           RealtimeEvent     `json:"data"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

type CentrifugoReply struct {
	Error *CentrifugoError `json:"error,omitempty"`
}

type CentrifugoError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
