// Package cli содержит общую инициализацию утилит: конфиг, логгер, запуск cobra-команды.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mapcrop/internal/config"
	"mapcrop/internal/logger"
)

// Env содержит то, что нужно каждой утилите после старта
type Env struct {
	Config *config.Config
	Logger *logger.LoggerManager
}

// Close закрывает лог-файл
func (e *Env) Close() {
	if e.Logger != nil {
		e.Logger.Close()
	}
}

// AddCommonFlags добавляет флаги, общие для всех утилит
func AddCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "путь к config.yaml (по умолчанию ./config.yaml, если есть)")
	f.String("log-file", "", "путь к лог-файлу")
	f.String("log-level", "", "уровень логирования: debug, info, warn, error")
}

// Init читает конфиг с учетом флагов команды и создает логгер
func Init(cmd *cobra.Command) (*Env, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.InitConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	loggerManager, err := logger.NewLoggerManager(cfg.LogFilePath, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	return &Env{Config: cfg, Logger: loggerManager}, nil
}

// RunFunc: тело утилиты, вызывается после инициализации конфига и логгера
type RunFunc func(env *Env, cmd *cobra.Command, args []string) error

// loggedError: ошибка уже записана в лог
type loggedError struct {
	err error
}

func (e loggedError) Error() string { return e.err.Error() }

func (e loggedError) Unwrap() error { return e.err }

// Run оборачивает fn в RunE: создает Env, пишет ошибку fn в лог и закрывает лог-файл
func Run(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := Init(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := fn(env, cmd, args); err != nil {
			env.Logger.LogError(err, fmt.Sprintf("❌ %s завершился с ошибкой", cmd.Name()))
			return loggedError{err: err}
		}
		return nil
	}
}

// Execute запускает команду и при ошибке завершает процесс с кодом 1.
// Ошибки, которые еще не попали в лог (конфиг, создание логгера), печатаются в stderr.
func Execute(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintln(os.Stderr, "Ошибка:", err)
		}
		os.Exit(1)
	}
}
