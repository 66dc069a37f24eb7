// Package interrupt превращает горячие клавиши в события захвата и выхода.
package interrupt

import (
	"bufio"
	"io"
	"strings"

	"mapcrop/internal/logger"
)

// InterruptManager управляет горячими клавишами утилиты захвата
type InterruptManager struct {
	captureChan   chan struct{}
	quitChan      chan struct{}
	loggerManager *logger.LoggerManager
}

// NewInterruptManager создает новый менеджер прерываний
func NewInterruptManager(loggerManager *logger.LoggerManager) *InterruptManager {
	if loggerManager == nil {
		loggerManager = logger.Nop()
	}
	return &InterruptManager{
		captureChan:   make(chan struct{}, 1),
		quitChan:      make(chan struct{}, 1),
		loggerManager: loggerManager.With("interrupt"),
	}
}

// CaptureChan: запрос на снимок экрана
func (im *InterruptManager) CaptureChan() <-chan struct{} {
	return im.captureChan
}

// QuitChan: запрос на завершение
func (im *InterruptManager) QuitChan() <-chan struct{} {
	return im.quitChan
}

// signal отправляет событие, не блокируясь, если предыдущее еще не обработано
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// MonitorReader читает команды построчно: пустая строка означает снимок, q означает выход.
// Используется там, где системный хук клавиатуры недоступен.
func (im *InterruptManager) MonitorReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			signal(im.captureChan)
		case "q", "quit", "exit":
			signal(im.quitChan)
			return
		default:
			im.loggerManager.Warn("Неизвестная команда %q (Enter: снимок, q: выход)", scanner.Text())
		}
	}
	// конец ввода означает выход
	signal(im.quitChan)
}
