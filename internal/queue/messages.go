package queue

// AnalyseJobMsg asks a worker to analyse one uploaded form.
type AnalyseJobMsg struct {
	JobID    string `json:"job_id"`
	FileKey  string `json:"file_key"`
	FileName string `json:"file_name,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalyseResultMsg is published on ResultTopic once a job has finished.
type AnalyseResultMsg struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ResultKey string `json:"result_key,omitempty"`
	Fields    int    `json:"fields"`
	Warnings  int    `json:"warnings"`
	Error     string `json:"error,omitempty"`
}
