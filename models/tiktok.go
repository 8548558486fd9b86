package models

// TikTokVideoData is the normalized engagement snapshot for one submission.
// Missing upstream fields default to zero / empty string, never an error.
type TikTokVideoData struct {
	VideoID  string `json:"videoId"`
	IsPhoto  bool   `json:"isPhoto"`
	Views    int64  `json:"views"`
	Shares   int64  `json:"shares"`
	Comments int64  `json:"comments"`
	Likes    int64  `json:"likes"`
	MusicID  string `json:"musicId"`
	AuthorID string `json:"authorId"`
	Caption  string `json:"caption"`
}

// TikTokUserInfo is the normalized profile snapshot used for bio verification
type TikTokUserInfo struct {
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Bio       string `json:"bio"`
	Followers int64  `json:"followers"`
}

// tikwm-style scraping API envelope: code 0 means success, anything else is an
// upstream error with msg set.

// TikTokAPIResponse is the raw video endpoint response
type TikTokAPIResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data *TikTokAPIVideo `json:"data"`
}

// TikTokAPIVideo is the raw video payload
type TikTokAPIVideo struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	PlayCount int64           `json:"play_count"`
	DiggCount int64           `json:"digg_count"`
	Comments  int64           `json:"comment_count"`
	Shares    int64           `json:"share_count"`
	Duration  int64           `json:"duration"`
	Music     *TikTokAPIMusic `json:"music_info"`
	Author    *TikTokAPIUser  `json:"author"`
	Images    []string        `json:"images"`
}

// TikTokAPIMusic is the raw sound payload
type TikTokAPIMusic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TikTokAPIUser is the raw author/profile payload
type TikTokAPIUser struct {
	ID        string `json:"id"`
	UniqueID  string `json:"unique_id"`
	Nickname  string `json:"nickname"`
	Signature string `json:"signature"`
}

// TikTokUserResponse is the raw profile endpoint response
type TikTokUserResponse struct {
	Code int                `json:"code"`
	Msg  string             `json:"msg"`
	Data *TikTokAPIUserData `json:"data"`
}

// TikTokAPIUserData wraps the profile payload with its stats
type TikTokAPIUserData struct {
	User  *TikTokAPIUser  `json:"user"`
	Stats *TikTokAPIStats `json:"stats"`
}

// TikTokAPIStats is the raw profile counters payload
type TikTokAPIStats struct {
	FollowerCount int64 `json:"followerCount"`
}
