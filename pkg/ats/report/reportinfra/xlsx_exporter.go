package reportinfra

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

const (
	SheetSummary    = "Summary"
	SheetSectors    = "Sectors"
	SheetCandidates = "Candidates"
	SheetReasons    = "Reasons"
	SheetJobs       = "Jobs"
)

// XLSXExporter renders a snapshot as an Excel workbook
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) Extension() string { return "xlsx" }

func (e XLSXExporter) Export(snap report.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errx.Wrap(err, "failed to create header style", errx.TypeInternal)
	}

	w := &sheetWriter{f: f, header: header}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, errx.Wrap(err, "failed to rename sheet", errx.TypeInternal)
	}
	for _, name := range []string{SheetSectors, SheetCandidates, SheetReasons, SheetJobs} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, errx.Wrap(err, "failed to create sheet", errx.TypeInternal).WithDetail("sheet", name)
		}
	}

	w.summary(snap)
	w.sectors(snap)
	w.candidates(snap)
	w.reasons(snap)
	w.jobs(snap)
	if w.err != nil {
		return nil, errx.Wrap(w.err, "failed to write workbook", errx.TypeInternal)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errx.Wrap(err, "failed to serialize workbook", errx.TypeInternal)
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so sections can be written in sequence.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, n int, values ...any) {
	w.row(sheet, n, values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(len(values), n)
	w.err = w.f.SetCellStyle(sheet, first, last, w.header)
}

func (w *sheetWriter) summary(snap report.Snapshot) {
	c := snap.Counters
	w.headerRow(SheetSummary, 1, "Metric", "Value")
	rows := [][]any{
		{"Start", snap.Range.Start.Format(time.DateOnly)},
		{"End", snap.Range.End.Format(time.DateOnly)},
		{"Unit", snap.Filter.Unit},
		{"Sector", snap.Filter.Sector},
		{"Total", c.Total},
		{"Backlog", c.Backlog},
		{"Opened", c.Opened},
		{"Closed", c.Closed},
		{"Canceled", c.Canceled},
		{"Frozen", c.Frozen},
		{"Active", c.Active},
		{"Balance open", c.BalanceOpen},
		{"SLA jobs", snap.SLA.Jobs},
		{"Avg gross days", snap.SLA.AvgGrossDays},
		{"Avg frozen days", snap.SLA.AvgFrozenDays},
		{"Avg net days", snap.SLA.AvgNetDays},
		{"Max net days", snap.SLA.MaxNetDays},
		{"Excluded", len(snap.Excluded)},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+2, r...)
	}
}

func (w *sheetWriter) sectors(snap report.Snapshot) {
	w.headerRow(SheetSectors, 1, "Sector", "Opened", "Closed", "Frozen", "Canceled")
	for i, s := range snap.Sectors {
		w.row(SheetSectors, i+2, s.Sector, s.Opened, s.Closed, s.Frozen, s.Canceled)
	}
}

func (w *sheetWriter) candidates(snap report.Snapshot) {
	m := snap.Candidates
	w.headerRow(SheetCandidates, 1, "Metric", "Value")
	w.row(SheetCandidates, 2, "Sourced", m.Sourced)
	w.row(SheetCandidates, 3, "Interviews", m.Interviews)
	w.row(SheetCandidates, 4, "Tech tests", m.TechTests)
	w.row(SheetCandidates, 5, "Rejections", m.Rejections)
	w.row(SheetCandidates, 6, "Withdrawals", m.Withdrawals)

	w.headerRow(SheetCandidates, 8, "Origin", "Count")
	for i, o := range m.Origins {
		w.row(SheetCandidates, i+9, o.Reason, o.Count)
	}
}

func (w *sheetWriter) reasons(snap report.Snapshot) {
	w.headerRow(SheetReasons, 1, "Kind", "Reason", "Count")
	n := 2
	for _, r := range snap.Candidates.RejectionReasons {
		w.row(SheetReasons, n, "Rejection", r.Reason, r.Count)
		n++
	}
	for _, r := range snap.Candidates.WithdrawalReasons {
		w.row(SheetReasons, n, "Withdrawal", r.Reason, r.Count)
		n++
	}
}

func (w *sheetWriter) jobs(snap report.Snapshot) {
	w.headerRow(SheetJobs, 1, "Job", "Backlog", "Opened", "Closed", "Canceled", "Frozen", "Active", "Balance open")
	sets := []map[kernel.JobID]bool{
		asSet(snap.Backlog), asSet(snap.OpenedInRange), asSet(snap.ClosedInRange),
		asSet(snap.CanceledInRange), asSet(snap.FrozenInRange), asSet(snap.ActiveTotal), asSet(snap.BalanceOpen),
	}
	for i, id := range snap.Jobs {
		values := []any{id.String()}
		for _, set := range sets {
			values = append(values, mark(set[id]))
		}
		w.row(SheetJobs, i+2, values...)
	}
}

func asSet(ids []kernel.JobID) map[kernel.JobID]bool {
	out := make(map[kernel.JobID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func mark(ok bool) string {
	if ok {
		return "x"
	}
	return ""
}
