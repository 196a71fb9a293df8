package rbac

const (
	PermAnswerSubmit    = "answer:submit"
	PermProgressViewOwn = "progress:view-own"
	PermProgressViewAll = "progress:view-all"
	// PermProgressViewChild lets a parent read learners whose parentId is theirs.
	PermProgressViewChild = "progress:view-child"
)

// RolePermissions is the default policy. Every role may answer questions;
// only progress reads differ.
var RolePermissions = map[string][]string{
	"student": {
		PermAnswerSubmit,
		PermProgressViewOwn,
	},
	"teacher": {
		PermAnswerSubmit,
		"progress:*",
	},
	"parent": {
		PermAnswerSubmit,
		PermProgressViewOwn,
		PermProgressViewChild,
	},
}
