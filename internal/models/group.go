package models

// Group is a named collection of users with shared access to a set of
// signals.
//
// Admins administer the group and get member-equivalent visibility even
// when they are not listed as members; they are never duplicated into
// the member set. Collaborators maps a signal ID to the users granted
// edit access to that one signal through this group, without full
// membership.
type Group struct {
	// ID is the numeric identifier assigned by the store.
	ID int64 `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// CreatedBy is the email of the user who created the group. The
	// creator becomes the group's first admin.
	CreatedBy string `json:"created_by"`

	// MemberIDs is the set of member user IDs, without duplicates.
	MemberIDs []int64 `json:"member_ids"`

	// AdminIDs is the set of admin user IDs, without duplicates.
	AdminIDs []int64 `json:"admin_ids"`

	// SignalIDs is the set of signals shared with this group.
	SignalIDs []int64 `json:"signal_ids"`

	// Collaborators maps a signal ID to the user IDs collaborating on
	// that signal through this group. Keys are always a subset of
	// SignalIDs; removing a signal from the group removes its entry.
	Collaborators map[int64][]int64 `json:"collaborators"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// HasAdmin reports whether userID administers the group.
func (g *Group) HasAdmin(userID int64) bool {
	for _, id := range g.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasMember reports whether userID is a member or an admin of the group.
func (g *Group) HasMember(userID int64) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return g.HasAdmin(userID)
}

// AuditEntry records one group mutation for the audit trail.
type AuditEntry struct {
	// ID is a UUID assigned when the entry is written.
	ID string `json:"id"`

	// GroupID is the mutated group.
	GroupID int64 `json:"group_id"`

	// Actor is the email of the user who performed the mutation.
	Actor string `json:"actor"`

	// Action names the mutation (create, add_member, set_collaborators, ...).
	Action string `json:"action"`

	// Detail carries the affected user/signal IDs in free form.
	Detail string `json:"detail,omitempty"`

	// CreatedAt is the Unix timestamp of the mutation.
	CreatedAt int64 `json:"created_at"`
}
