package service

import "github.com/orbita-academy/orbita-backend/internal/model"

// bootstrapAccount is a fixed credential that creates its own user record on
// first successful login. These exist so a fresh deployment is reachable
// before anyone has been registered; the passwords are development defaults
// and the accounts behave like ordinary registered users once created.
type bootstrapAccount struct {
	Password string
	Name     string
	Email    string
	Role     model.Role
}

var bootstrapAccounts = map[string]bootstrapAccount{
	"admin": {
		Password: "admin123",
		Name:     "Administrator",
		Email:    "admin@orbita.uz",
		Role:     model.RoleAdmin,
	},
	"hr": {
		Password: "hr123",
		Name:     "HR Manager",
		Email:    "hr@orbita.uz",
		Role:     model.RoleHRManager,
	},
	"english": {
		Password: "english123",
		Name:     "English Teacher",
		Email:    "english@orbita.uz",
		Role:     model.RoleEnglishTeacher,
	},
	"it": {
		Password: "it123",
		Name:     "IT Teacher",
		Email:    "it@orbita.uz",
		Role:     model.RoleITTeacher,
	},
}

// BootstrapUsernames lists the fixed bootstrap account usernames.
func BootstrapUsernames() []string {
	names := make([]string, 0, len(bootstrapAccounts))
	for username := range bootstrapAccounts {
		names = append(names, username)
	}
	return names
}
