package telemetry

import (
	"strings"
	"sync"
)

type ReportLevel int

const (
	LevelDebug ReportLevel = iota
	LevelWarning
	LevelBroken
	LevelCount
)

type Report struct {
	Level  ReportLevel
	Id     string
	Params []any
	Count  int64
}

// RecordingAPI keeps every report in memory, it is what tests use to assert
// that the right things were (or were not) reported.
type RecordingAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecordingAPI() *RecordingAPI {
	return &RecordingAPI{}
}

func (r *RecordingAPI) push(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.push(Report{Level: LevelBroken, Id: id, Params: params})
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.push(Report{Level: LevelWarning, Id: id, Params: params})
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.push(Report{Level: LevelDebug, Id: msg, Params: params})
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.push(Report{Level: LevelCount, Id: id, Count: count})
}

// Reports returns a copy of every report so far.
func (r *RecordingAPI) Reports() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Find returns the reports of the given level whose id ends with suffix.
// (ids are usually prefixed by one or more ScopedAPI namespaces)
func (r *RecordingAPI) Find(level ReportLevel, suffix string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Level == level && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
