package crawler

type State int

const (
	StateNavigate State = iota
	StateSelectYear
	StateSelectQuarter
	StateSelectJurisdiction
	StateSelectSubJurisdiction
	StateSubmit
	StateAwaitTable
	StateParseRows
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNavigate:
		return "navigate"
	case StateSelectYear:
		return "select-year"
	case StateSelectQuarter:
		return "select-quarter"
	case StateSelectJurisdiction:
		return "select-jurisdiction"
	case StateSelectSubJurisdiction:
		return "select-sub-jurisdiction"
	case StateSubmit:
		return "submit"
	case StateAwaitTable:
		return "await-table"
	case StateParseRows:
		return "parse-rows"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
