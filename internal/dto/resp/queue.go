package resp

type ProcessResponse struct {
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Retrying  int    `json:"retrying"`
	Message   string `json:"message"`
}

type EnqueueResponse struct {
	Enqueued            int              `json:"enqueued"`
	JobID               string           `json:"jobId"`
	Status              string           `json:"status"`
	ProcessResult       *ProcessResponse `json:"processResult,omitempty"`
	ProcessTriggerError string           `json:"processTriggerError,omitempty"`
}

type QueueStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Retrying   int64 `json:"retrying"`
	Total      int64 `json:"total"`
}

type RetryFailedResponse struct {
	Reset int64 `json:"reset"`
	*ProcessResponse
}
