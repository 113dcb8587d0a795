package dataset

// Role names what a referenced column is used for
type Role string

const (
	RoleMain      Role = "main"
	RoleCondition Role = "condition"
	RoleCounts    Role = "counts"
	RoleX         Role = "x"
	RoleY         Role = "y"
	RoleSubject   Role = "subject"
	RoleLabel     Role = "label"
	RoleGrouping  Role = "grouping"
)

// NeedsNumeric reports whether the role requires a numeric column
func (r Role) NeedsNumeric() bool {
	return r == RoleCounts
}

// VarRef is a column name plus its role in an analysis
type VarRef struct {
	Name string
	Role Role
}

// Ref is shorthand for VarRef{Name: name, Role: role}
func Ref(name string, role Role) VarRef {
	return VarRef{Name: name, Role: role}
}

// Names returns the non-empty column names of refs
func Names(refs ...VarRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != "" {
			out = append(out, r.Name)
		}
	}
	return out
}
