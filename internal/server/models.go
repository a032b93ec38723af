package server

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Error string `json:"error"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateReportRequest struct {
	Topic      string   `json:"topic"`
	ReportType string   `json:"report_type,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

type CreateReportResponse struct {
	RunID string `json:"run_id"`
}

type CreateScheduleRequest struct {
	Topic      string `json:"topic"`
	ReportType string `json:"report_type,omitempty"`
	CronExpr   string `json:"cron_expr"`
}

type LearningSearchResponse struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
}
