package reportsrv

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/ats/sla"
	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fsx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// ReportService arma snapshots por viewer. Solo carga vacantes visibles, así
// que una vacante confidencial nunca entra al cálculo de quien no puede verla.
type ReportService struct {
	jobs       job.Repository
	candidates candidate.Repository
	cache      report.SnapshotCache
	exporter   report.Exporter
	archive    fsx.FileWriter
	cfg        config.ReportConfig
	now        func() time.Time
}

// ExportResult is a rendered report ready to download
type ExportResult struct {
	Filename     string
	ContentType  string
	Data         []byte
	ArchivedPath string
}

// NewReportService construye el servicio. archive puede ser nil cuando no se archivan exportaciones.
func NewReportService(
	jobs job.Repository,
	candidates candidate.Repository,
	cache report.SnapshotCache,
	exporter report.Exporter,
	archive fsx.FileWriter,
	cfg config.ReportConfig,
) *ReportService {
	return &ReportService{
		jobs:       jobs,
		candidates: candidates,
		cache:      cache,
		exporter:   exporter,
		archive:    archive,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *ReportService) options() report.Options {
	return report.Options{GeneralPoolJobID: kernel.NewJobID(s.cfg.GeneralPoolJobID)}
}

func cacheKey(gen int64, viewer kernel.Viewer, r report.DateRange, f report.Filter) string {
	return fmt.Sprintf("g%d:%s:%s:%d:%d:%s:%s",
		gen, viewer.ID, viewer.Role, r.Start.UnixNano(), r.End.UnixNano(), f.Unit, f.Sector)
}

// cachedKey resolves the cache key under the current generation. It reports
// false when caching is off or the generation cannot be read.
func (s *ReportService) cachedKey(ctx context.Context, viewer kernel.Viewer, r report.DateRange, f report.Filter) (string, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return "", false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		logx.WithError(err).Warn("report cache generation unavailable, bypassing cache")
		return "", false
	}
	return cacheKey(gen, viewer, r, f), true
}

// Snapshot devuelve el reporte del viewer para el rango, leyendo primero de la caché
func (s *ReportService) Snapshot(ctx context.Context, viewer kernel.Viewer, r report.DateRange, f report.Filter) (*report.Snapshot, error) {
	key, useCache := s.cachedKey(ctx, viewer, r, f)
	if useCache {
		cached, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			logx.WithError(err).Warn("report cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	jobs, err := s.jobs.FindVisible(ctx, viewer, job.Filter{})
	if err != nil {
		return nil, err
	}

	opts := s.options()
	ids := make([]kernel.JobID, 0, len(jobs)+1)
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	if !opts.GeneralPoolJobID.IsEmpty() {
		ids = append(ids, opts.GeneralPoolJobID)
	}

	candidates, err := s.candidates.FindByJobs(ctx, ids)
	if err != nil {
		return nil, err
	}

	snap := report.Build(jobs, candidates, viewer, r, f, opts)
	if len(snap.Excluded) > 0 {
		logx.WithFields(logx.Fields{
			"viewer":   viewer.ID,
			"excluded": snap.Excluded,
		}).Warn("jobs with inconsistent dates left out of report")
	}

	if useCache {
		if err := s.cache.Set(ctx, key, snap, s.cfg.CacheTTL); err != nil {
			logx.WithError(err).Warn("report cache write failed")
		}
	}
	return &snap, nil
}

// Export renderiza el snapshot y, si está habilitado, guarda una copia en el archivo
func (s *ReportService) Export(ctx context.Context, viewer kernel.Viewer, r report.DateRange, f report.Filter) (*ExportResult, error) {
	snap, err := s.Snapshot(ctx, viewer, r, f)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.Export(*snap)
	if err != nil {
		return nil, report.ErrExportFailed().WithError(err)
	}

	result := &ExportResult{
		Filename: fmt.Sprintf("report_%s_%s.%s",
			r.Start.Format("20060102"), r.End.Format("20060102"), s.exporter.Extension()),
		ContentType: s.exporter.ContentType(),
		Data:        data,
	}

	if s.cfg.ArchiveExports && s.archive != nil {
		archived := path.Join(s.cfg.ArchivePrefix, viewer.ID.String(),
			s.now().UTC().Format("20060102T150405")+"_"+result.Filename)
		if err := s.archive.WriteFile(ctx, archived, data); err != nil {
			logx.WithError(err).WithField("path", archived).Warn("failed to archive report export")
		} else {
			result.ArchivedPath = archived
		}
	}

	logx.WithFields(logx.Fields{
		"viewer": viewer.ID,
		"bytes":  len(data),
		"file":   result.Filename,
	}).Info("report exported")
	return result, nil
}

// ParseRange arma el rango a partir de dos fechas en la zona del reporte
func (s *ReportService) ParseRange(start, end string) (report.DateRange, error) {
	if start == "" || end == "" {
		return report.DateRange{}, report.ErrInvalidRange().WithDetail("error", "start and end are required")
	}
	loc := s.cfg.Location()
	st, err := sla.ParseDate(start, loc)
	if err != nil {
		return report.DateRange{}, err
	}
	en, err := sla.ParseDate(end, loc)
	if err != nil {
		return report.DateRange{}, err
	}
	return report.NewDateRange(st, en, loc)
}
