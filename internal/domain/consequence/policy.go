package consequence

import (
	"unicode/utf8"

	"github.com/trizly/lumi-link/internal/domain/model"
)

// MaxNicknameLength is Discord's nickname limit in characters.
const MaxNicknameLength = 32

// BuildNickname renders the nickname for format. Display falls back to username.
func BuildNickname(format model.NameSyncFormat, username, displayName string) string {
	display := displayName
	if display == "" {
		display = username
	}

	var nick string
	switch format {
	case model.NameSyncDisplay:
		nick = display
	case model.NameSyncSmart:
		if username == "" {
			nick = display
		} else {
			nick = display + " (@" + username + ")"
		}
	default:
		nick = username
	}
	return truncateRunes(nick, MaxNicknameLength)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// CanManageRole reports whether the bot may assign role. The reason is empty when allowed.
func CanManageRole(bot model.BotStanding, role *model.GuildRole) (bool, string) {
	if role == nil {
		return false, ReasonRoleNotFound
	}
	if !bot.Has(model.PermissionManageRoles) {
		return false, ReasonInsufficientPerms
	}
	if bot.TopRolePosition <= role.Position {
		return false, ReasonRoleAboveBot
	}
	return true, ""
}

// CanManageNickname reports whether the bot holds ManageNicknames.
func CanManageNickname(bot model.BotStanding) bool {
	return bot.Has(model.PermissionManageNicknames)
}

// CanSendMessages reports whether perms allow posting in a channel.
func CanSendMessages(perms int64) bool {
	return model.BotStanding{Permissions: perms}.Has(model.PermissionSendMessages)
}
