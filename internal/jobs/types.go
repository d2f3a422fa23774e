package jobs

const (
	TaskEncodeVideo = "encode:video"
)

// EncodeVideoPayload carries one inbound video from the bot to the worker.
// Settings are not included: the worker reads the current document at job
// start, so a settings change applies to videos still sitting in the queue.
type EncodeVideoPayload struct {
	JobID     string `json:"job_id"` // ULID assigned by the bot
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	MessageID int    `json:"message_id"` // the video message, replied to on upload
	FileID    string `json:"file_id"`    // telegram file_id of the source video
	FileName  string `json:"file_name"`  // original filename, may be empty
	FileSize  int64  `json:"file_size"`  // as reported by telegram, for progress
}
