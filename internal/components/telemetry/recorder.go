package telemetry

import (
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_INFO
	REPORT_DEBUG
	REPORT_COUNT
)

// Report is a single call made to a Recorder.
type Report struct {
	Kind ReportKind
	// Id is the report id for broken/warning/count reports and the message for info/debug reports.
	Id     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is meant for making assertions in tests.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) push(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push(Report{Kind: REPORT_BROKEN, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push(Report{Kind: REPORT_WARNING, Id: id, Params: params})
}

func (r *Recorder) ReportInfo(msg string, args ...any) {
	r.push(Report{Kind: REPORT_INFO, Id: msg, Params: args})
}

func (r *Recorder) ReportDebug(msg string, args ...any) {
	r.push(Report{Kind: REPORT_DEBUG, Id: msg, Params: args})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push(Report{Kind: REPORT_COUNT, Id: id, Count: count})
}

// Reports returns a copy of every report of the given kind in the order they were made.
func (r *Recorder) Reports(kind ReportKind) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Ids returns the ids of every report of the given kind.
func (r *Recorder) Ids(kind ReportKind) []string {
	reports := r.Reports(kind)
	ids := make([]string, len(reports))
	for i, report := range reports {
		ids[i] = report.Id
	}
	return ids
}
