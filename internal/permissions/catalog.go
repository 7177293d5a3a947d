package permissions

// Capability keys for the department hierarchy.
const (
	DeptCreate   = "department.manage.create"
	DeptUpdate   = "department.manage.update"
	DeptDelete   = "department.manage.delete"
	DeptView     = "department.view.get"
	DeptViewTree = "department.view.tree"

	RoleCreate = "role.manage.create"
	RoleUpdate = "role.manage.update"
	RoleDelete = "role.manage.delete"
	RoleView   = "role.view.get"
	RoleList   = "role.view.list"

	UserCreate = "user.manage.create"
	UserUpdate = "user.manage.update"
	UserDelete = "user.manage.delete"
	UserView   = "user.view.get"
	UserList   = "user.view.list"

	OrgUnitCreate = "internal_organization.manage.create"
	OrgUnitUpdate = "internal_organization.manage.update"
	OrgUnitDelete = "internal_organization.manage.delete"
	OrgUnitView   = "internal_organization.view.get"
	OrgUnitList   = "internal_organization.view.list"

	OrgUnitMemberAdd      = "internal_organization_to_user.manage.create"
	OrgUnitMemberRemove   = "internal_organization_to_user.manage.delete"
	OrgUnitMemberList     = "internal_organization_to_user.view.get_by_organization"
	OrgUnitMembershipList = "internal_organization_to_user.view.get_by_user"
)

// RegisterDefaults seeds the registry with every capability the platform
// ships with. Called once during application startup.
func RegisterDefaults(r *Registry) {
	r.Register(DeptCreate, "Create child departments")
	r.Register(DeptUpdate, "Update direct child departments")
	r.Register(DeptDelete, "Delete direct child departments")
	r.Register(DeptView, "View own or descendant departments")
	r.Register(DeptViewTree, "View the department subtree")

	r.Register(RoleCreate, "Create roles")
	r.Register(RoleUpdate, "Update roles")
	r.Register(RoleDelete, "Delete roles")
	r.Register(RoleView, "View roles")
	r.Register(RoleList, "List department roles")

	r.Register(UserCreate, "Create users")
	r.Register(UserUpdate, "Update users")
	r.Register(UserDelete, "Delete users")
	r.Register(UserView, "View users")
	r.Register(UserList, "List department users")

	r.Register(OrgUnitCreate, "Create org units")
	r.Register(OrgUnitUpdate, "Update org units")
	r.Register(OrgUnitDelete, "Delete org units")
	r.Register(OrgUnitView, "View org units")
	r.Register(OrgUnitList, "List department org units")

	r.Register(OrgUnitMemberAdd, "Add org unit members")
	r.Register(OrgUnitMemberRemove, "Remove org unit members")
	r.Register(OrgUnitMemberList, "List org unit members")
	r.Register(OrgUnitMembershipList, "List a user's org units")
}
