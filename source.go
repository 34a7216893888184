package reactive

// ChangeKind describes what kind of mutation a [Change] reports.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota + 1
	ChangeRemove
	ChangeReplace
	ChangeClear
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeReplace:
		return "replace"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change is a notification that an observed collection mutated. It does
// not carry the new data; consumers re-read the snapshot.
type Change struct {
	Kind  ChangeKind
	Index int
}

// Source is a mutable collection that can be watched.
//
// Items returns a point-in-time, ordered snapshot that the caller may keep.
// Changes returns the collection's change feed: one [Change] per discrete
// mutation, sent after the mutation is visible through Items. The feed is
// closed when the collection is closed, and failed when an upstream fault
// occurs.
type Source[E any] interface {
	Items() []E
	Changes() *Feed[Change]
}
