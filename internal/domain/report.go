package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

const (
	TargetCreated   = "created"
	TargetUpdated   = "updated"
	TargetUnchanged = "unchanged"
)

const (
	ErrCodeTransformFailed = "transform_failed"
	ErrCodeContractInvalid = "contract_invalid"
	ErrCodeTargetConflict  = "target_conflict"
	ErrCodeIOFailed        = "io_failed"
	ErrCodeCrossDevice     = "cross_device"
	ErrCodeFetchFailed     = "fetch_failed"
	ErrCodeConfigInvalid   = "config_invalid"
	ErrCodeCanceled        = "canceled"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Root          string `json:"root"`
	APIBase       string `json:"api_base"`
	ContentDir    string `json:"content_dir"`
	RedirectsFile string `json:"redirects_file"`
	DryRun        bool   `json:"dry_run"`
	Offline       bool   `json:"offline"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary    ReportSummary `json:"summary"`
	Items      []ItemResult  `json:"items"`
	Collisions []Collision   `json:"collisions"`
}

type ReportSummary struct {
	Posts      int `json:"posts"`
	Categories int `json:"categories"`
	Converted  int `json:"converted"`
	Failed     int `json:"failed"`
	Redirects  int `json:"redirects"`
	Collisions int `json:"collisions"`
}

type ItemResult struct {
	PostID int    `json:"post_id"`
	Link   string `json:"link"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	File        string    `json:"file"`
	TargetState string    `json:"target_state"`
	Steps       int       `json:"steps"`
	Redirect    *Redirect `json:"redirect"`

	// OverwrittenBy 非 0 表示该文件被后续同路径文章覆盖（后写者胜）。
	OverwrittenBy int `json:"overwritten_by"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出（Posts/Categories 由调用方填写）
//
// items 不重排：处理是串行的，顺序即文章抓取顺序，本身已稳定。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	s := ReportSummary{
		Posts:      r.Summary.Posts,
		Categories: r.Summary.Categories,
	}
	for _, it := range r.Items {
		switch it.Status {
		case StatusConverted:
			s.Converted++
		case StatusFailed:
			s.Failed++
		}
		if it.Redirect != nil {
			s.Redirects++
		}
		if it.OverwrittenBy != 0 {
			s.Collisions++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性：nil items/collisions 输出为 []。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	if a.Items == nil {
		a.Items = []ItemResult{}
	}
	if a.Collisions == nil {
		a.Collisions = []Collision{}
	}
	return json.Marshal(a)
}
