package req

type EnqueueRow struct {
	PhoneE164     string `json:"phone_e164" binding:"required"`
	GuideNumber   string `json:"guide_number" binding:"required"`
	RecipientName string `json:"recipient_name" binding:"required"`
	Priority      int    `json:"priority"`
}

type EnqueueRequest struct {
	JobID       string       `json:"jobId" binding:"required"`
	Rows        []EnqueueRow `json:"rows" binding:"required,min=1,dive"`
	SenderName  string       `json:"senderName"`
	AutoProcess bool         `json:"autoProcess"`
}

type ProcessRequest struct {
	JobID       string `json:"jobId"`
	MaxMessages int    `json:"maxMessages"`
}
