package model

import (
	"time"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that owns zero or more podcasts.
type User struct {
	tableName struct{} `pg:"users"` //nolint

	ID             int64     `pg:",pk" json:"id"`
	Username       string    `pg:",unique,notnull" json:"username"`
	Nickname       string    `json:"nickname"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Description    string    `json:"description"`
	AvatarKey      string    `json:"-"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`

	Podcasts []*Podcast `pg:"rel:has-many" json:"podcasts,omitempty"`
}

// Podcast is the aggregate root for feed generation. FeedKey holds the
// asset store key of the last published feed document, or "" if the
// podcast currently has no publishable feed.
type Podcast struct {
	tableName struct{} `pg:"podcasts"` //nolint

	ID          int64  `pg:",pk" json:"id"`
	AuthorID    int64  `pg:",notnull" json:"author_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Explicit    bool   `pg:",use_zero" json:"explicit"`
	Copyright   string `json:"copyright"`
	Link        string `json:"link"`
	Generator   string `json:"generator"`
	CoverKey    string `json:"-"`
	FeedKey     string `json:"-"`

	CreatedAt time.Time `json:"created_at"`

	Author   *User      `pg:"rel:has-one" json:"author,omitempty"`
	Episodes []*Episode `pg:"rel:has-many" json:"episodes,omitempty"`
}

// Episode belongs to exactly one podcast. GUID and PubDate are assigned
// once at creation and never change.
type Episode struct {
	tableName struct{} `pg:"episodes"` //nolint

	ID          int64     `pg:",pk" json:"id"`
	PodcastID   int64     `pg:",notnull" json:"podcast_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GUID        string    `json:"guid"`
	PubDate     time.Time `json:"pub_date"`
	AudioKey    string    `json:"-"`
	AudioLength int64     `pg:",use_zero" json:"audio_length"`
	AudioType   string    `json:"audio_type"`
	CoverKey    string    `json:"-"`
	Duration    int       `pg:",use_zero" json:"duration"`
	Explicit    bool      `pg:",use_zero" json:"explicit"`
	Link        string    `json:"link"`

	CreatedAt time.Time `json:"created_at"`
}
