package accesscontrol

import (
	"log"
	"os"

	gormadapter "github.com/casbin/gorm-adapter/v3"

	"github.com/casbin/casbin/v2"
	"gorm.io/gorm"
)

var _ AccessControl = &CasbinRBAC{}
var casbinEnforcer *casbin.Enforcer

type CasbinRBAC struct {
	domain   string // scopes this to a specific domain - or tenant
	enforcer *casbin.Enforcer
}

type CasbinRBACProvider struct {
	enforcer *casbin.Enforcer
}

func (c CasbinRBACProvider) GetDomainRBAC(domain string) AccessControl {
	return &CasbinRBAC{
		domain:   domain,
		enforcer: c.enforcer,
	}
}

func (c *CasbinRBAC) HasAccess(subject string) bool {
	roles := c.enforcer.GetRolesForUserInDomain("user::"+subject, "domain::"+c.domain)
	return len(roles) > 0
}

func (c *CasbinRBAC) GrantRole(subject, role string) error {
	_, err := c.enforcer.AddRoleForUserInDomain("user::"+subject, "role::"+role, "domain::"+c.domain)
	return err
}

func (c *CasbinRBAC) RevokeRole(subject, role string) error {
	_, err := c.enforcer.DeleteRoleForUserInDomain("user::"+subject, "role::"+role, "domain::"+c.domain)
	return err
}

func (c *CasbinRBAC) RevokeAllRoles(subject string) error {
	for _, role := range []string{RoleAdmin, RoleManager, RoleUser} {
		if err := c.RevokeRole(subject, role); err != nil {
			return err
		}
	}
	return nil
}

func (c *CasbinRBAC) InheritRole(roleWhichGetsPermissions, roleWhichProvidesPermissions string) error {
	_, err := c.enforcer.AddRoleForUserInDomain("role::"+roleWhichGetsPermissions, "role::"+roleWhichProvidesPermissions, "domain::"+c.domain)
	return err
}

func (c *CasbinRBAC) AllowRole(role string, object Object, actions []Action) error {
	policies := make([][]string, len(actions))
	for i, action := range actions {
		policies[i] = []string{"role::" + role, "domain::" + c.domain, "obj::" + string(object), "act::" + string(action)}
	}

	_, err := c.enforcer.AddPolicies(policies)
	return err
}

func (c *CasbinRBAC) IsAllowed(subject string, object Object, action Action) (bool, error) {
	permissions, err := c.enforcer.GetImplicitPermissionsForUser("user::"+subject, "domain::"+c.domain)
	if err != nil {
		return false, err
	}

	for _, p := range permissions {
		if p[2] == "obj::"+string(object) && p[3] == "act::"+string(action) {
			return true, nil
		}
	}
	return false, nil
}

func (c CasbinRBACProvider) DomainsOfUser(user string) ([]string, error) {
	domains, err := c.enforcer.GetDomainsForUser("user::" + user)
	if err != nil {
		return nil, err
	}
	// slice the "domain::" prefix
	for i, d := range domains {
		domains[i] = d[8:]
	}
	return domains, nil
}

// NewCasbinRBACProvider creates domain specific RBAC instances backed by the
// casbin_rule table.
func NewCasbinRBACProvider(db *gorm.DB) (CasbinRBACProvider, error) {
	enforcer, err := buildEnforcer(db)
	if err != nil {
		return CasbinRBACProvider{}, err
	}
	return CasbinRBACProvider{
		enforcer: enforcer,
	}, nil
}

func buildEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	if casbinEnforcer != nil {
		return casbinEnforcer, nil
	}

	a, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}

	path := os.Getenv("RBAC_CONFIG_PATH")
	if path == "" {
		path = "config/rbac_model.conf"
	}

	e, err := casbin.NewEnforcer(path, a)
	if err != nil {
		return nil, err
	}

	e.EnableLog(false)

	// Load the policy from DB.
	if err = e.LoadPolicy(); err != nil {
		log.Println("LoadPolicy failed, err: ", err)
	}

	casbinEnforcer = e

	return e, nil
}
