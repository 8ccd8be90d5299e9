package policy

// Action is one of the closed set of operations the engine decides on. Values
// are bit flags so each resource kind can declare its grantable set as a mask.
type Action uint16

const (
	ActionView Action = 1 << iota
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionManage
	ActionUpload
	ActionDownload
	ActionJoin
	ActionLeave
	ActionBan
	ActionPromote
	ActionImpersonate
	ActionInteract
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionManage:
		return "manage"
	case ActionUpload:
		return "upload"
	case ActionDownload:
		return "download"
	case ActionJoin:
		return "join"
	case ActionLeave:
		return "leave"
	case ActionBan:
		return "ban"
	case ActionPromote:
		return "promote"
	case ActionImpersonate:
		return "impersonate"
	case ActionInteract:
		return "interact"
	default:
		return "unknown"
	}
}

// actionSet is a bitmask over Action. A kind's set holds every action that has
// a non-admin grant path; anything outside it denies without a lookup.
type actionSet uint16

func (s actionSet) has(a Action) bool {
	return uint16(s)&uint16(a) != 0
}
