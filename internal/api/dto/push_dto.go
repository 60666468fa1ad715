package dto

type PushKeysReq struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type PushSubscribeReq struct {
	Endpoint string      `json:"endpoint" binding:"required,url"`
	Keys     PushKeysReq `json:"keys"`
}

type VAPIDKeyRes struct {
	PublicKey string `json:"public_key"`
}

type TelegramLinkReq struct {
	ChatID int64 `json:"chat_id" binding:"required"`
}
