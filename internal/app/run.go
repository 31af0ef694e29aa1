package app

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/assessor/assessment"
)

const fyneAppID = "yashubustudio.assessor"

// Run loads configuration, wires the upload service and starts the desktop UI.
func Run() error {
	if err := assessment.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := assessment.LoadConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	sink := newLogSink(200)
	logger, err := newLogger(sink)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := assessment.NewService(cfg, assessment.NewFileLoader(cfg, logger), logger)
	if err != nil {
		return err
	}

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, cfg, logger, sink)
	u.w.ShowAndRun()

	if err := assessment.SaveConfig("", svc.Config()); err != nil {
		logger.Warn("save config failed", zap.Error(err))
	}
	return nil
}

// newLogger writes production JSON to stderr and a compact console form to
// the in-window log panel.
func newLogger(sink *logSink) (*zap.Logger, error) {
	base, err := zap.NewProductionConfig().Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""
	panel := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(sink), zapcore.InfoLevel)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, panel)
	})), nil
}
