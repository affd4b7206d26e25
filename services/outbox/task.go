package outbox

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypeOutboxSend = "outbox:send"

type SendPayload struct {
	MessageID string `json:"message_id"`
	Provider  string `json:"provider"`
	ChannelID string `json:"channel_id"`
}

func NewSendTask(p SendPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOutboxSend, payload,
		asynq.Queue("default")), nil
}
