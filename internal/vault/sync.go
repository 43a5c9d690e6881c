package vault

// Reconcile brings workspace state back in line with the current record list
// after an authoritative refresh (initial load, post-mutation reload, or an
// external file-system change).
//
// Tabs whose record disappeared are flagged missing-on-disk but kept open:
// closing them would throw away the user's context without consent. Expanded
// entries for folders that no longer exist are pruned. Selection and the
// active id are only touched when the referenced entity is confirmably gone.
func Reconcile(s *State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tabs {
		r, ok := s.byID[s.tabs[i].ID]
		s.tabs[i].Missing = !ok
		if ok {
			// The store is the source of truth for the parent path.
			s.tabs[i].Path = r.Path
		}
	}

	for id := range s.expanded {
		r, ok := s.byID[id]
		if !ok || !r.IsFolder() {
			delete(s.expanded, id)
		}
	}

	for id := range s.selected {
		if _, ok := s.byID[id]; !ok {
			delete(s.selected, id)
		}
	}
	for id := range s.created {
		if _, ok := s.byID[id]; !ok {
			delete(s.created, id)
		}
	}

	if s.activeID != "" {
		if _, ok := s.byID[s.activeID]; !ok {
			// Keep a missing-but-open tab active only if it is still open.
			if !s.hasTab(s.activeID) {
				s.activeID = ""
			}
		}
	}
}

func (s *State) hasTab(id string) bool {
	for _, t := range s.tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}
