package model

// Role is the closed set of account roles. Exactly one role per user;
// there is no role-change operation after registration.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleHRManager      Role = "hr_manager"
	RoleEnglishTeacher Role = "english_teacher"
	RoleITTeacher      Role = "it_teacher"
	RoleUser           Role = "user"
)

// AllRoles lists every role in the enumeration.
var AllRoles = []Role{
	RoleAdmin,
	RoleHRManager,
	RoleEnglishTeacher,
	RoleITTeacher,
	RoleUser,
}

// roleDefaults maps each role to its default permission set.
// Admin is seeded with the whole catalog; plain users start with nothing;
// staff roles get task-specific subsets.
var roleDefaults = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleHRManager: {
		PermissionViewDashboard,
		PermissionManageJobs,
		PermissionManageApplications,
		PermissionManageChat,
		PermissionViewReports,
	},
	RoleEnglishTeacher: {
		PermissionViewDashboard,
		PermissionManageCourses,
		PermissionManageSchedule,
		PermissionManageChat,
	},
	RoleITTeacher: {
		PermissionViewDashboard,
		PermissionManageCourses,
		PermissionManageSchedule,
		PermissionManageChat,
	},
	RoleUser: {},
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role is the administrator role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsStaff reports whether the role grants back-office access.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleHRManager, RoleEnglishTeacher, RoleITTeacher:
		return true
	}
	return false
}

// DefaultPermissionsFor returns a fresh copy of the default permission set
// for a role. Unrecognized roles get the empty set rather than an error so
// a bad role value degrades to "no access".
func DefaultPermissionsFor(role Role) []string {
	defaults, ok := roleDefaults[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(defaults))
	for i, p := range defaults {
		out[i] = string(p)
	}
	return out
}
