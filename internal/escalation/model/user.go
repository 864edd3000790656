package model

// RecipientRole is a closed enumeration of responsibility tiers a rule may
// address. Rules store role names; unknown names are rejected at parse time so
// resolution never falls back to string matching.
type RecipientRole int

const (
	RoleManager RecipientRole = iota
	RoleDirector
	RoleCEO
	RoleServiceHead
)

var roleNames = map[RecipientRole]string{
	RoleManager:     "manager",
	RoleDirector:    "director",
	RoleCEO:         "ceo",
	RoleServiceHead: "service_head",
}

var rolesByName = func() map[string]RecipientRole {
	m := make(map[string]RecipientRole, len(roleNames))
	for r, n := range roleNames {
		m[n] = r
	}
	return m
}()

func (r RecipientRole) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

// ParseRole maps a stored role name onto the closed set.
func ParseRole(s string) (RecipientRole, bool) {
	r, ok := rolesByName[s]
	return r, ok
}

// User is the directory view of a tenant employee. Read-only here; the
// directory module owns these rows.
type User struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Active   bool   `json:"active"`
}
