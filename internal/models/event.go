package models

const (
	RefreshReasonWriteFailed = "aggregate_write_failed"
	RefreshReasonManual      = "manual"
)

type CompanyRefreshEvent struct {
	Company   string `json:"company"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}
