package authz

// Action classifies the operation being authorized against a target
// department.
type Action int

const (
	// ActionCreateChild creates a department directly under the subject's own.
	ActionCreateChild Action = iota
	// ActionUpdateDirectChild updates a direct child of the subject's department.
	ActionUpdateDirectChild
	// ActionDeleteDirectChild deletes a direct child of the subject's department.
	ActionDeleteDirectChild
	// ActionReadScoped reads a single department inside the subject's subtree.
	ActionReadScoped
	// ActionReadTree reads the whole subtree rooted at the subject's department.
	ActionReadTree
)

// String returns the action name used in logs and metrics.
func (a Action) String() string {
	switch a {
	case ActionCreateChild:
		return "create_child"
	case ActionUpdateDirectChild:
		return "update_direct_child"
	case ActionDeleteDirectChild:
		return "delete_direct_child"
	case ActionReadScoped:
		return "read_scoped"
	case ActionReadTree:
		return "read_tree"
	default:
		return "unknown"
	}
}

// Reason classifies the outcome of an evaluation.
type Reason string

const (
	// ReasonAllowed marks an allowed decision.
	ReasonAllowed Reason = "allowed"
	// ReasonPermissionDenied means the subject lacks the required capability.
	ReasonPermissionDenied Reason = "permission_denied"
	// ReasonNotDirectChild means the target is not a direct child of the
	// subject's department.
	ReasonNotDirectChild Reason = "not_direct_child"
	// ReasonLevelLimitExceeded means the subject's department sits at the
	// terminal level and may not gain children.
	ReasonLevelLimitExceeded Reason = "level_limit_exceeded"
	// ReasonOutOfScope means the target lies outside the subject's subtree.
	ReasonOutOfScope Reason = "out_of_scope"
)

// Decision is the immutable result of one evaluation. Deny is an ordinary
// outcome carried by value; it is never reported as an error.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the decision returned when every check passes.
var Allow = Decision{Allowed: true, Reason: ReasonAllowed}

// Deny builds a denial carrying the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
