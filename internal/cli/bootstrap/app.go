package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/semadox/odoo-ninja/internal/cli/api"
	"github.com/semadox/odoo-ninja/internal/cli/auth"
	fsrepo "github.com/semadox/odoo-ninja/internal/cli/repo/fs"
	"github.com/semadox/odoo-ninja/internal/cli/service"
	"github.com/semadox/odoo-ninja/internal/config"
)

// App: всё, что нужно командам: сессия, сервис записей и логгер.
type App struct {
	Session *api.Session
	Records *service.Records
	Log     *zap.SugaredLogger
}

// NewLogger builds a development-style logger writing to stderr.
// verbose forces debug regardless of level.
func NewLogger(level string, verbose bool) (*zap.SugaredLogger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// EnsurePassword asks for the password on the terminal when the config has none.
// Nothing happens when in is not a terminal.
func EnsurePassword(cfg *config.Config, in *os.File, prompt io.Writer) error {
	if cfg.Password != "" || in == nil || !term.IsTerminal(int(in.Fd())) {
		return nil
	}
	fmt.Fprintf(prompt, "Odoo password for %s: ", cfg.Username)
	pw, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	cfg.Password = strings.TrimSpace(string(pw))
	return nil
}

// Open validates cfg and wires session, messaging and the record service.
// cleanup закрывает сессию; его нужно вызвать после окончания работы.
func Open(cfg *config.Config, log *zap.SugaredLogger) (*App, func() error, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sess, err := api.NewSession(api.Options{
		URL:      cfg.URL,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
		Protocol: cfg.Protocol,
		Timeout:  cfg.Timeout,
		Logger:   log,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debugw("session configured", "url", cfg.URL, "db", cfg.Database, "protocol", cfg.Protocol, "env_file", cfg.LoadedEnvFile)

	poster := auth.NewPoster(sess, cfg.DefaultUserID, log)
	records := service.NewRecords(sess, fsrepo.AttachmentFSStore{}, poster, log)
	app := &App{Session: sess, Records: records, Log: log}
	return app, sess.Close, nil
}
