package calendar

// institutionWide lists the categories every authenticated member of the
// institution may read regardless of ownership. Meetings, administrative
// notices, parent-facing entries and uncategorised events stay restricted.
var institutionWide = map[Category]struct{}{
	CategoryAcademic: {},
	CategoryHoliday:  {},
	CategorySpecial:  {},
	CategoryExam:     {},
	CategoryVacation: {},
	CategoryEvent:    {},
	CategoryDeadline: {},
}

// Filter narrows events to those the principal may read. It is a pure
// predicate over its inputs: filtering an already-filtered set changes
// nothing, and the input slice is never mutated. Unknown roles receive guest
// visibility so the filter fails closed.
func Filter(events []Event, principal Principal) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if Visible(event, principal) {
			out = append(out, event)
		}
	}
	return out
}

// Visible reports whether a single event may be read by the principal.
func Visible(event Event, principal Principal) bool {
	role := principal.Role
	if role.Elevated() {
		return true
	}

	if !role.Authenticated() {
		// Anonymous and unrecognised callers see only the public face of the
		// calendar: all-day static entries and explicitly public events.
		if event.Source == SourceStatic {
			return event.AllDay
		}
		return event.IsPublic
	}

	if event.IsPublic {
		return true
	}
	if principal.UserID != "" && event.AuthorID == principal.UserID {
		return true
	}
	for _, attendee := range event.AttendeeIDs {
		if principal.UserID != "" && attendee == principal.UserID {
			return true
		}
	}
	if event.Source == SourceStatic && event.AllDay {
		return true
	}
	if _, ok := institutionWide[event.Category]; ok {
		return true
	}

	switch event.Category {
	case CategoryParent:
		return role == RoleParent || role == RoleTeacher
	case CategoryAdministrative:
		return role == RoleTeacher
	}

	return false
}
