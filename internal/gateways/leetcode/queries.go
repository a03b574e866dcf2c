package leetcode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

const profileQuery = `query getUserProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile {
      realName
      userAvatar
      ranking
    }
    submitStats {
      acSubmissionNum {
        difficulty
        count
      }
    }
  }
}`

const recentAcceptedQuery = `query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
  }
}`

const dailyQuery = `query questionOfToday {
  activeDailyCodingChallengeQuestion {
    date
    link
    question {
      questionId
      questionFrontendId
      title
      titleSlug
      difficulty
    }
  }
}`

const dailyRecordsQuery = `query dailyCodingQuestionRecords($year: Int!, $month: Int!) {
  dailyCodingChallengeV2(year: $year, month: $month) {
    challenges {
      date
      link
      question {
        questionId
        questionFrontendId
        title
        titleSlug
        difficulty
      }
    }
  }
}`

type graphQLRequest struct {
	OperationName string                 `json:"operationName,omitempty"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors gqlerror.List   `json:"errors"`
}

// hasData reports whether the data member carries anything besides null.
func (r *graphQLResponse) hasData() bool {
	d := strings.TrimSpace(string(r.Data))
	return d != "" && d != "null"
}

type profileData struct {
	MatchedUser *struct {
		Username string `json:"username"`
		Profile  *struct {
			RealName   string `json:"realName"`
			UserAvatar string `json:"userAvatar"`
			Ranking    *int   `json:"ranking"`
		} `json:"profile"`
		SubmitStats *struct {
			AcSubmissionNum []struct {
				Difficulty string `json:"difficulty"`
				Count      *int   `json:"count"`
			} `json:"acSubmissionNum"`
		} `json:"submitStats"`
	} `json:"matchedUser"`
}

type recentData struct {
	RecentAcSubmissionList []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		TitleSlug string `json:"titleSlug"`
		Timestamp string `json:"timestamp"`
	} `json:"recentAcSubmissionList"`
}

type challengeData struct {
	Date     string `json:"date"`
	Link     string `json:"link"`
	Question *struct {
		QuestionID         string `json:"questionId"`
		QuestionFrontendID string `json:"questionFrontendId"`
		Title              string `json:"title"`
		TitleSlug          string `json:"titleSlug"`
		Difficulty         string `json:"difficulty"`
	} `json:"question"`
}

type dailyData struct {
	ActiveDailyCodingChallengeQuestion *challengeData `json:"activeDailyCodingChallengeQuestion"`
}

type dailyRecordsData struct {
	DailyCodingChallengeV2 *struct {
		Challenges []challengeData `json:"challenges"`
	} `json:"dailyCodingChallengeV2"`
}

// decodeProfile maps a getUserProfile payload. ok is false when the user
// does not exist.
func decodeProfile(raw json.RawMessage) (profile *Profile, ok bool, err error) {
	var data profileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, err
	}
	u := data.MatchedUser
	if u == nil {
		return nil, false, nil
	}
	if u.SubmitStats == nil || len(u.SubmitStats.AcSubmissionNum) == 0 {
		return nil, true, fmt.Errorf("submitStats.acSubmissionNum missing")
	}

	p := &Profile{Username: u.Username}
	if u.Profile != nil {
		p.DisplayName = u.Profile.RealName
		p.Avatar = u.Profile.UserAvatar
		p.GlobalRank = u.Profile.Ranking
	}

	var sawAll bool
	for _, n := range u.SubmitStats.AcSubmissionNum {
		if n.Count == nil {
			return nil, true, fmt.Errorf("acSubmissionNum[%s].count missing", n.Difficulty)
		}
		if *n.Count < 0 {
			return nil, true, fmt.Errorf("acSubmissionNum[%s].count is negative: %d", n.Difficulty, *n.Count)
		}
		switch n.Difficulty {
		case "All":
			p.Totals.Total = *n.Count
			sawAll = true
		case "Easy":
			p.Totals.Easy = *n.Count
		case "Medium":
			p.Totals.Medium = *n.Count
		case "Hard":
			p.Totals.Hard = *n.Count
		}
	}
	if !sawAll {
		return nil, true, fmt.Errorf("acSubmissionNum has no All entry")
	}
	if p.Username == "" {
		return nil, true, fmt.Errorf("matchedUser.username missing")
	}
	return p, true, nil
}

func decodeRecent(raw json.RawMessage) ([]RecentSubmission, error) {
	var data recentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	out := make([]RecentSubmission, 0, len(data.RecentAcSubmissionList))
	for _, s := range data.RecentAcSubmissionList {
		if s.TitleSlug == "" {
			return nil, fmt.Errorf("recent submission %q has no titleSlug", s.ID)
		}
		secs, err := strconv.ParseInt(s.Timestamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("recent submission %q timestamp %q: %w", s.ID, s.Timestamp, err)
		}
		out = append(out, RecentSubmission{
			ID:        s.ID,
			Title:     s.Title,
			TitleSlug: s.TitleSlug,
			Timestamp: time.Unix(secs, 0).UTC(),
		})
	}
	return out, nil
}

func (c *challengeData) toChallenge() (*DailyChallenge, error) {
	if c == nil {
		return nil, fmt.Errorf("challenge missing")
	}
	if c.Date == "" {
		return nil, fmt.Errorf("challenge date missing")
	}
	if c.Question == nil || c.Question.TitleSlug == "" {
		return nil, fmt.Errorf("challenge %s question missing", c.Date)
	}
	return &DailyChallenge{
		Date: c.Date,
		Link: c.Link,
		Question: Question{
			QuestionID:         c.Question.QuestionID,
			QuestionFrontendID: c.Question.QuestionFrontendID,
			Title:              c.Question.Title,
			TitleSlug:          c.Question.TitleSlug,
			Difficulty:         c.Question.Difficulty,
		},
	}, nil
}

func decodeDaily(raw json.RawMessage) (*DailyChallenge, error) {
	var data dailyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data.ActiveDailyCodingChallengeQuestion.toChallenge()
}

func decodeDailyRecords(raw json.RawMessage) ([]DailyChallenge, error) {
	var data dailyRecordsData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.DailyCodingChallengeV2 == nil {
		return nil, fmt.Errorf("dailyCodingChallengeV2 missing")
	}
	out := make([]DailyChallenge, 0, len(data.DailyCodingChallengeV2.Challenges))
	for i := range data.DailyCodingChallengeV2.Challenges {
		ch, err := data.DailyCodingChallengeV2.Challenges[i].toChallenge()
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, nil
}
