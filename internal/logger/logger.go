package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerManager управляет логированием в консоль и в файл
type LoggerManager struct {
	file   *lumberjack.Logger
	logger zerolog.Logger
}

// NewLoggerManager создает новый экземпляр LoggerManager.
// В консоль (stderr) пишется человекочитаемый текст, в файл пишется JSON с ротацией.
// Пустой logFilePath отключает запись в файл.
func NewLoggerManager(logFilePath string, level string) (*LoggerManager, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
		}
		lvl = parsed
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}

	if logFilePath == "" {
		return &LoggerManager{
			logger: zerolog.New(console).Level(lvl).With().Timestamp().Logger(),
		}, nil
	}

	// Создаем директорию для логов, если её нет
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории для логов: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		LocalTime:  true,
	}

	multi := zerolog.MultiLevelWriter(console, lj)

	return &LoggerManager{
		file:   lj,
		logger: zerolog.New(multi).Level(lvl).With().Timestamp().Logger(),
	}, nil
}

// NewWriterLogger создает логгер, пишущий только в w (используется в тестах)
func NewWriterLogger(w io.Writer) *LoggerManager {
	return &LoggerManager{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// Nop возвращает логгер, который ничего не пишет
func Nop() *LoggerManager {
	return &LoggerManager{logger: zerolog.Nop()}
}

// Close закрывает файл логов
func (l *LoggerManager) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// With возвращает дочерний логгер с полем module
func (l *LoggerManager) With(module string) *LoggerManager {
	return &LoggerManager{
		file:   l.file,
		logger: l.logger.With().Str("module", module).Logger(),
	}
}

// Zerolog отдает нижележащий zerolog.Logger для структурированных полей
func (l *LoggerManager) Zerolog() *zerolog.Logger {
	return &l.logger
}

// Debug записывает отладочное сообщение
func (l *LoggerManager) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// Info записывает информационное сообщение
func (l *LoggerManager) Info(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Warn записывает предупреждение
func (l *LoggerManager) Warn(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

// Error записывает сообщение об ошибке
func (l *LoggerManager) Error(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

// LogError записывает ошибку с дополнительной информацией
func (l *LoggerManager) LogError(err error, context string) {
	if err != nil {
		l.logger.Error().Err(err).Msg(context)
	}
}
