package leetcode

import (
	"time"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// Profile is a member's aggregate solve counts as reported upstream.
type Profile struct {
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Avatar      string        `json:"avatar"`
	GlobalRank  *int          `json:"global_rank,omitempty"`
	Totals      models.Totals `json:"totals"`
}

// ProfileResult is one item of a batch fetch. Exactly one of Profile and Err
// is set.
type ProfileResult struct {
	Username string
	Profile  *Profile
	Err      error
}

// RecentSubmission is one entry of the recent-accepted stream.
type RecentSubmission struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TitleSlug string    `json:"title_slug"`
	Timestamp time.Time `json:"timestamp"`
}

type Question struct {
	QuestionID         string `json:"question_id"`
	QuestionFrontendID string `json:"question_frontend_id"`
	Title              string `json:"title"`
	TitleSlug          string `json:"title_slug"`
	Difficulty         string `json:"difficulty"`
}

// DailyChallenge is the platform's problem of the day. Date is YYYY-MM-DD.
type DailyChallenge struct {
	Date     string   `json:"date"`
	Link     string   `json:"link"`
	Question Question `json:"question"`
}

// URL returns the absolute link to the challenge.
func (d *DailyChallenge) URL() string {
	if d.Link == "" || d.Link[0] != '/' {
		return d.Link
	}
	return "https://leetcode.com" + d.Link
}
