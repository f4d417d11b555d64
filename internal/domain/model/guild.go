package model

// Discord permission bits consulted by the consequence applier.
const (
	PermissionAdministrator   int64 = 1 << 3
	PermissionSendMessages    int64 = 1 << 11
	PermissionManageNicknames int64 = 1 << 27
	PermissionManageRoles     int64 = 1 << 28
)

// GuildMember is a member of a guild as seen by the bot.
type GuildMember struct {
	UserID   string
	Username string
	Nick     string
	Roles    []string
}

// HasRole reports whether the member holds roleID.
func (m GuildMember) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// GuildRole is a role definition in a guild.
type GuildRole struct {
	ID          string
	Name        string
	Position    int
	Permissions int64
}

// BotStanding is the bot's effective standing in a guild: the highest role
// position it holds and its combined permissions.
type BotStanding struct {
	TopRolePosition int
	Permissions     int64
}

// Has reports whether the standing grants perm, treating Administrator as all.
func (b BotStanding) Has(perm int64) bool {
	if b.Permissions&PermissionAdministrator != 0 {
		return true
	}
	return b.Permissions&perm == perm
}

// GuildInfo is the guild name and id used in user-facing messages.
type GuildInfo struct {
	ID   string
	Name string
}
