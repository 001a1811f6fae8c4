package api

import (
	"time"

	"github.com/starford/failbook/internal/outcome"
	"github.com/starford/failbook/internal/report"
)

// RunDirItem is one candidate directory in a list response.
type RunDirItem struct {
	Name    string    `json:"name" example:"2024-11-02-12-00-00--gpt" validate:"required"`
	ModTime time.Time `json:"mod_time" validate:"required"`
	URL     string    `json:"url" example:"/process/2024-11-02-12-00-00--gpt" validate:"required"`
}

// RunDirListResponse wraps candidate directory listings.
type RunDirListResponse struct {
	Dirs []RunDirItem `json:"dirs" validate:"required"`
}

// StatsResponse reports the outcome tally of a processed directory.
type StatsResponse struct {
	Dir         string              `json:"dir" validate:"required"`
	Total       int                 `json:"total" example:"42"`
	FirstTry    int                 `json:"first_try"`
	SecondTry   int                 `json:"second_try"`
	Failures    int                 `json:"failures"`
	Percentages outcome.Percentages `json:"percentages"`
	HTML        string              `json:"html" example:"2024-run/combined_chat_history.html"`
}

func newStatsResponse(rep *report.Report) StatsResponse {
	return StatsResponse{
		Dir:         rep.Dir,
		Total:       rep.Tally.Total,
		FirstTry:    rep.Tally.FirstTry,
		SecondTry:   rep.Tally.SecondTry,
		Failures:    rep.Tally.Failures,
		Percentages: rep.Tally.Percentages(),
		HTML:        rep.HTMLPath,
	}
}
