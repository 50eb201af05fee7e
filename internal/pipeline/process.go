package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rostergen/internal"
	"rostergen/internal/config"
	"rostergen/internal/storage"
)

type ConversionService struct {
	cfg     config.Config
	logger  *zap.Logger
	history *storage.DB
}

// NewConversionService builds a service for one conversion per Run. history
// may be nil, in which case runs are not recorded.
func NewConversionService(cfg config.Config, logger *zap.Logger, history *storage.DB) *ConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionService{cfg: cfg, logger: logger, history: history}
}

type ConvertResult struct {
	TraceID    string
	InputPath  string
	OutputPath string
	Encoding   string
	Format     internal.InputFormat
	Counts     internal.RunCounts
	Teachers   []internal.Teacher
	Duration   time.Duration
}

// Run converts the configured roster into the JavaScript data file. The
// output is written only once every row has been read; any error leaves the
// output path untouched.
func (s *ConversionService) Run(ctx context.Context) (ConvertResult, error) {
	start := time.Now()
	res := ConvertResult{
		TraceID:    uuid.NewString(),
		InputPath:  s.cfg.Input.Path,
		OutputPath: s.cfg.Output.Path,
		Encoding:   s.cfg.Input.Encoding,
		Format:     internal.InputFormat(s.cfg.Input.Format),
	}
	log := s.logger.With(zap.String("trace_id", res.TraceID))

	err := s.convert(ctx, log, &res)
	res.Duration = time.Since(start)
	s.record(log, res, err)

	if err != nil {
		log.Error("conversion failed",
			zap.String("input", res.InputPath),
			zap.Int("rows_read", res.Counts.Read),
			zap.Error(err),
		)
		return res, err
	}
	log.Info("conversion done",
		zap.String("output", res.OutputPath),
		zap.Int("rows_read", res.Counts.Read),
		zap.Int("rows_dropped", res.Counts.Dropped),
		zap.Int("rows_written", res.Counts.Written),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *ConversionService) convert(ctx context.Context, log *zap.Logger, res *ConvertResult) error {
	src, err := OpenSource(SourceOptions{
		Path:     s.cfg.Input.Path,
		Encoding: s.cfg.Input.Encoding,
		Format:   res.Format,
		Sheet:    s.cfg.Input.Sheet,
	})
	if err != nil {
		return err
	}
	res.Format = src.Format
	if src.Encoding != "" {
		res.Encoding = src.Encoding
	}
	log.Debug("source opened",
		zap.String("input", res.InputPath),
		zap.String("format", string(res.Format)),
		zap.String("encoding", res.Encoding),
	)

	cols := internal.Columns{Dept: s.cfg.Input.DeptColumn, Name: s.cfg.Input.NameColumn}
	collector, collectErr := Collect(ctx, src, cols, RulesFromConfig(s.cfg.Normalize))
	closeErr := src.Close()
	if collector != nil {
		res.Counts = collector.Counts()
	}
	if err := errors.Join(collectErr, closeErr); err != nil {
		return err
	}
	res.Teachers = collector.Teachers()

	opts := JSOptions{ConstName: s.cfg.Output.ConstName, Indent: s.cfg.Output.Indent}
	return WriteJS(s.cfg.Output.Path, res.Teachers, opts)
}

func (s *ConversionService) record(log *zap.Logger, res ConvertResult, runErr error) {
	if s.history == nil {
		return
	}
	run := internal.RunRecord{
		TraceID:    res.TraceID,
		InputPath:  res.InputPath,
		OutputPath: res.OutputPath,
		Encoding:   res.Encoding,
		Format:     string(res.Format),
		Counts:     res.Counts,
		Status:     internal.RunOK,
		DurationMs: res.Duration.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if runErr != nil {
		run.Status = internal.RunFailed
		run.Error = runErr.Error()
	}
	if _, err := s.history.InsertRun(run); err != nil {
		log.Warn("recording run failed", zap.Error(err))
		return
	}
	if runErr == nil {
		if err := s.history.SetMetadata(storage.MetaLastOutput, res.OutputPath); err != nil {
			log.Warn("recording last output failed", zap.Error(err))
		}
	}
}
