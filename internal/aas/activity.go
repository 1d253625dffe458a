package aas

import "time"

// Action names what a mutation did to its subject.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
)

// ActivityType names the subject of an activity entry. It covers the
// entity kinds plus the package lifecycle.
type ActivityType string

const (
	ActivityShell              ActivityType = ActivityType(KindShell)
	ActivitySubmodel           ActivityType = ActivityType(KindSubmodel)
	ActivityConceptDescription ActivityType = ActivityType(KindConceptDescription)
	ActivityPackage            ActivityType = "package"
)

// Activity is one immutable entry of the append-only audit trail. Entries
// record history, not current state: they survive deletion of whatever
// they reference.
type Activity struct {
	Seq        int64        `json:"-"`
	Type       ActivityType `json:"type"`
	Action     Action       `json:"action"`
	Identifier string       `json:"identifier"`
	Filename   string       `json:"filename,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}
