package accesscontrol

// casbin role names, lowercase. They mirror the membership roles stored in
// the org_memberships table; membership mutations keep both in sync.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

type Object string

const (
	ObjectOrganization Object = "organization"
	ObjectMembers      Object = "members"
	ObjectInvitation   Object = "invitation"
	ObjectDiary        Object = "diary"
	ObjectReports      Object = "reports"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type AccessControl interface {
	HasAccess(subject string) bool

	GrantRole(subject, role string) error
	RevokeRole(subject, role string) error
	RevokeAllRoles(subject string) error

	InheritRole(roleWhichGetsPermissions, roleWhichProvidesPermissions string) error

	AllowRole(role string, object Object, actions []Action) error
	IsAllowed(subject string, object Object, action Action) (bool, error)
}

type RBACProvider interface {
	GetDomainRBAC(domain string) AccessControl
	DomainsOfUser(user string) ([]string, error)
}
