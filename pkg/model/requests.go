package model

// Request payloads accepted by the HTTP layer. Update structs use
// pointers so that absent fields are left untouched.

type UserCreate struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Nickname    string `json:"nickname" binding:"required"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

type UserUpdate struct {
	Nickname    *string `json:"nickname"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
	Password    *string `json:"password"`
}

type PodcastCreate struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Language    string `json:"language" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory"`
	Explicit    bool   `json:"explicit"`
	Copyright   string `json:"copyright"`
	Link        string `json:"link"`
}

type PodcastUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Explicit    *bool   `json:"explicit"`
	Copyright   *string `json:"copyright"`
	Link        *string `json:"link"`
}

type EpisodeCreate struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Explicit    bool   `json:"explicit"`
	Link        string `json:"link"`
}

type EpisodeUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Duration    *int    `json:"duration"`
	Explicit    *bool   `json:"explicit"`
	Link        *string `json:"link"`
}
