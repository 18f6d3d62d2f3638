package memory

import "encoding/json"

// pendingSentinel is the reserved project_name column value for a session
// that has not selected a project yet. It is a storage encoding only —
// everything outside this file works with ProjectBinding.
const pendingSentinel = "__pending__"

// ProjectBinding is a session's project attachment: either pending (no
// project selected) or bound to a named project. The zero value is pending.
type ProjectBinding struct {
	project string
}

// Pending returns the unbound state.
func Pending() ProjectBinding { return ProjectBinding{} }

// BoundTo returns a binding to the named project.
func BoundTo(project string) ProjectBinding { return ProjectBinding{project: project} }

// Bound reports whether a project has been selected.
func (b ProjectBinding) Bound() bool { return b.project != "" }

// Project returns the bound project name; ok is false while pending.
func (b ProjectBinding) Project() (name string, ok bool) {
	return b.project, b.project != ""
}

// String renders the binding for logs and tool output.
func (b ProjectBinding) String() string {
	if b.project == "" {
		return "pending"
	}
	return b.project
}

// MarshalJSON renders the binding as its display string.
func (b ProjectBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// bindingFromColumn decodes a stored project_name value. An empty column is
// treated as pending so that rows written before the sentinel default was
// applied uniformly still gate correctly.
func bindingFromColumn(v string) ProjectBinding {
	if v == "" || v == pendingSentinel {
		return Pending()
	}
	return BoundTo(v)
}

// column encodes the binding for the project_name column.
func (b ProjectBinding) column() string {
	if b.project == "" {
		return pendingSentinel
	}
	return b.project
}
