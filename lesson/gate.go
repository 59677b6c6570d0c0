package lesson

// Decision is the outcome of an access check for a single lesson.
type Decision int

const (
	// Denied means the viewer must pay before playing the lesson.
	Denied Decision = iota
	// Allowed means the lesson may be played.
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Gate decides whether a viewer with the given entitlement may play the
// lesson at index. The free lesson is always allowed; everything else
// requires a paid entitlement.
func Gate(index int, paid bool) Decision {
	if index == FreeLessonIndex || paid {
		return Allowed
	}
	return Denied
}

// State is a lesson's presentation state in the catalog listing.
type State string

const (
	// Unlocked lessons are playable for the current viewer.
	Unlocked State = "unlocked"
	// Locked lessons show the paywall instead of playing.
	Locked State = "locked"
)

// View is a lesson paired with its state for a given viewer.
type View struct {
	Lesson
	State State `json:"state"`
}

// ViewFor renders the catalog for a viewer with the given entitlement.
// Lock state is derived, never stored: a paid grant flips every locked
// lesson to unlocked on the next render.
func (c *Catalog) ViewFor(paid bool) []View {
	views := make([]View, 0, len(c.lessons))
	for _, l := range c.lessons {
		state := Locked
		if Gate(l.Index, paid) == Allowed {
			state = Unlocked
		}
		views = append(views, View{Lesson: l, State: state})
	}
	return views
}
