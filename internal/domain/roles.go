package domain

// Role levels, lowest to highest. An actor's level arrives with each
// request from the upstream identity layer; the service only compares it
// against this table, it never authenticates.
const (
	RoleDefault   = 0
	RoleSpecial   = 1
	RoleModerator = 2
	RoleBouncer   = 3
	RoleManager   = 4
	RoleAdmin     = 6
)

// Actor is the identity a request acts as.
type Actor struct {
	ID   string
	Role int
}

type Action int

const (
	// waitlist
	ActionWaitlistJoin Action = iota // append yourself
	ActionWaitlistAdd                // append another user
	ActionWaitlistInsert
	ActionWaitlistMove
	ActionWaitlistRemoveOther
	ActionWaitlistClear
	ActionWaitlistLock

	// booth
	ActionBoothSkipOther
	ActionBoothReplace

	// moderation
	ActionRoleChange
	ActionNameChangeOther
	ActionBan
	ActionMute
)

var minRole = map[Action]int{
	ActionWaitlistJoin:        RoleDefault,
	ActionWaitlistAdd:         RoleModerator,
	ActionWaitlistInsert:      RoleModerator,
	ActionWaitlistMove:        RoleModerator,
	ActionWaitlistRemoveOther: RoleModerator,
	ActionWaitlistClear:       RoleModerator,
	ActionWaitlistLock:        RoleModerator,
	ActionBoothSkipOther:      RoleModerator,
	ActionBoothReplace:        RoleModerator,
	ActionRoleChange:          RoleModerator,
	ActionNameChangeOther:     RoleModerator,
	ActionBan:                 RoleModerator,
	ActionMute:                RoleModerator,
}

// Allow reports whether the given role level may perform the action.
// It is a pure lookup; callers run it before touching any store.
func Allow(role int, action Action) bool {
	required, ok := minRole[action]
	if !ok {
		return false
	}
	return role >= required
}
