package telegram

import "encoding/json"

// MessageInfo identifies a message inside an incoming webhook update.
type MessageInfo struct {
	FromChatID string
	MessageID  int64
}

type update struct {
	Message     *updateMessage `json:"message"`
	ChannelPost *updateMessage `json:"channel_post"`
}

type updateMessage struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID json.Number `json:"id"`
	} `json:"chat"`
}

// ExtractMessageInfo pulls the originating chat and message id out of a raw
// webhook update body. Updates carrying neither a message nor a channel post
// return ok=false.
func ExtractMessageInfo(body []byte) (MessageInfo, bool) {
	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		return MessageInfo{}, false
	}

	msg := u.Message
	if msg == nil {
		msg = u.ChannelPost
	}
	if msg == nil || msg.MessageID == 0 {
		return MessageInfo{}, false
	}

	return MessageInfo{
		FromChatID: msg.Chat.ID.String(),
		MessageID:  msg.MessageID,
	}, true
}
