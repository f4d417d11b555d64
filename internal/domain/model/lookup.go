package model

// DiscordInfo describes a Discord account in lookup responses. Profile fields
// are not resolved and stay null.
type DiscordInfo struct {
	ID          string  `json:"id"`
	CreatedAt   *string `json:"createdAt"`
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
}

// RobloxInfo describes a Roblox account in lookup responses.
type RobloxInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Description string  `json:"description"`
	CreatedAt   *string `json:"createdAt"`
	AvatarURL   *string `json:"avatarUrl"`
	ProfileURL  string  `json:"profileUrl"`
}

// RobloxProfile is the subset of users.roblox.com/v1/users/{id}.
type RobloxProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Created     string `json:"created"`
}

// LookupResult is returned by both lookup directions.
type LookupResult struct {
	Discord *DiscordInfo `json:"discord"`
	Roblox  *RobloxInfo  `json:"roblox"`
	Linked  bool         `json:"linked"`
	Source  string       `json:"source"`
}
