package model

// LinkedEvent is queued after a link is persisted.
type LinkedEvent struct {
	DiscordID string `json:"discordId"`
	GuildID   string `json:"guildId"`
	RobloxID  string `json:"robloxId"`
	Username  string `json:"username"`
}

// UnlinkedEvent is queued after a link is removed. An empty GuildID fans out
// to every configured guild.
type UnlinkedEvent struct {
	DiscordID string `json:"discordId"`
	GuildID   string `json:"guildId,omitempty"`
}

// MemberJoinedEvent is queued by the gateway when a member joins a guild.
type MemberJoinedEvent struct {
	DiscordID string `json:"discordId"`
	GuildID   string `json:"guildId"`
}
