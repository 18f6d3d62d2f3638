package memory

import "context"

// Access is the verdict on whether a session may touch project-scoped
// data. While the session is pending, AvailableProjects carries the
// current project listing so the caller can present choices instead of
// proceeding with an unbound scope.
type Access struct {
	Binding           ProjectBinding
	AvailableProjects []ProjectStats
}

// Permitted reports whether the session is bound to a project.
func (a *Access) Permitted() bool { return a.Binding.Bound() }

// Project returns the bound project name; ok is false while pending.
func (a *Access) Project() (string, bool) { return a.Binding.Project() }

// CheckAccess is the gate every project-scoped tool consults once per
// invocation before touching domain data. It resolves the session's
// binding: bound sessions are permitted with their project name, pending
// sessions are refused together with the selectable projects. An unknown
// session id is ErrSessionNotFound.
func (s *Store) CheckAccess(ctx context.Context, sessionID string) (*Access, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Binding.Bound() {
		return &Access{Binding: sess.Binding}, nil
	}

	available, err := s.ListProjectsWithStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Access{Binding: sess.Binding, AvailableProjects: available}, nil
}
