package model

// Permission represents a string code for a specific back-office action.
type Permission string

const (
	// PermissionViewDashboard allows opening the admin dashboard.
	PermissionViewDashboard Permission = "view_dashboard"

	// PermissionManageCourses allows creating, updating, and deleting courses.
	PermissionManageCourses Permission = "manage_courses"

	// PermissionManageSchedule allows editing group timetables.
	PermissionManageSchedule Permission = "manage_schedule"

	// PermissionManageJobs allows managing job postings.
	PermissionManageJobs Permission = "manage_jobs"

	// PermissionManageApplications allows processing course and job applications.
	PermissionManageApplications Permission = "manage_applications"

	// PermissionManageUsers allows managing accounts, their permissions, and active flags.
	PermissionManageUsers Permission = "manage_users"

	// PermissionManageChat allows answering learner chat threads.
	PermissionManageChat Permission = "manage_chat"

	// PermissionViewReports allows viewing enrollment and hiring reports.
	PermissionViewReports Permission = "view_reports"
)

// AllPermissions is the closed catalog of every permission in the system.
// Permissions are never created at runtime; anything referenced elsewhere
// must appear here.
var AllPermissions = []Permission{
	PermissionViewDashboard,
	PermissionManageCourses,
	PermissionManageSchedule,
	PermissionManageJobs,
	PermissionManageApplications,
	PermissionManageUsers,
	PermissionManageChat,
	PermissionViewReports,
}

// PermissionStrings returns the catalog as plain strings, the form stored
// on user records and embedded in token claims.
func PermissionStrings() []string {
	out := make([]string, len(AllPermissions))
	for i, p := range AllPermissions {
		out[i] = string(p)
	}
	return out
}

// ValidPermission reports whether code belongs to the catalog.
func ValidPermission(code string) bool {
	for _, p := range AllPermissions {
		if string(p) == code {
			return true
		}
	}
	return false
}
