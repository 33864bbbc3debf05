package kakomon

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"

	"kakomonbot-backend/lib/timezone"
)

// SearchConfig tunes the provider's past-exam search form. Every list
// field falls back to the full built-in catalog when empty, every scalar
// to the provider's own defaults, so a zero value reproduces the site's
// "random question from everything" search.
type SearchConfig struct {
	Enabled    bool     `json:"enabled"`
	Times      []string `json:"times"`
	Fields     []string `json:"fields"`
	Categories []int    `json:"categories"`
	Options    []string `json:"options"`
	Moshi      string   `json:"moshi"`
	MoshiCnt   int      `json:"moshi_cnt"`
	Addition   int      `json:"addition"`
	Mode       int      `json:"mode"`
	Qno        int      `json:"qno"`
	StartTime  string   `json:"start_time"`
}

// SidProvider produces the pseudo-random session id the search endpoint
// expects. Injectable so tests can pin it.
type SidProvider func() string

var defaultTimes = []string{
	"07_aki", "07_haru", "06_aki", "06_haru", "05_aki", "05_haru", "04_aki", "04_haru",
	"03_aki", "03_haru", "02_aki", "01_aki", "31_haru", "30_aki", "30_haru", "29_aki",
	"29_haru", "28_aki", "28_haru", "27_aki", "27_haru", "26_aki", "26_haru", "25_aki",
	"25_haru", "24_aki", "24_haru", "23_aki", "23_toku", "22_aki", "22_haru", "21_aki",
	"21_haru", "20_aki",
}

var defaultFields = []string{"te_all", "ma_all", "st_all"}

var defaultOptions = []string{"random", "showComment"}

func defaultCategories() []int {
	categories := make([]int, 23)
	for i := range categories {
		categories[i] = i + 1
	}
	return categories
}

func defaultSid() string {
	digest := sha256.Sum256([]byte(strconv.FormatInt(timezone.Now().UnixMilli(), 10)))
	return hex.EncodeToString(digest[:])
}

// SearchBody builds the URL-encoded form body for the search endpoint.
// A nil sid falls back to hashing the current time.
func SearchBody(config SearchConfig, sid SidProvider) string {
	if sid == nil {
		sid = defaultSid
	}

	times := config.Times
	if len(times) == 0 {
		times = defaultTimes
	}
	fields := config.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	categories := config.Categories
	if len(categories) == 0 {
		categories = defaultCategories()
	}
	options := config.Options
	if len(options) == 0 {
		options = defaultOptions
	}

	params := url.Values{}
	for _, t := range times {
		params.Add("times[]", t)
	}
	for _, f := range fields {
		params.Add("fields[]", f)
	}
	for _, c := range categories {
		params.Add("categories[]", strconv.Itoa(c))
	}
	for _, o := range options {
		params.Add("options[]", o)
	}

	params.Add("moshi", stringOr(config.Moshi, "mix_all"))
	params.Add("moshi_cnt", strconv.Itoa(intOr(config.MoshiCnt, 40)))
	params.Add("addition", strconv.Itoa(config.Addition))
	params.Add("mode", strconv.Itoa(intOr(config.Mode, 1)))
	params.Add("qno", strconv.Itoa(config.Qno))
	params.Add("sid", sid())
	params.Add("_q", "")
	params.Add("_r", "")
	params.Add("_c", "")
	params.Add("result", "-1")
	params.Add("startTime", config.StartTime)

	return params.Encode()
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func intOr(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
