//go:build !windows

package interrupt

import "errors"

// HotkeysSupported сообщает, доступен ли системный хук клавиатуры
const HotkeysSupported = false

// ErrHotkeysUnsupported: системный хук клавиатуры есть только в Windows
var ErrHotkeysUnsupported = errors.New("global hotkeys are only supported on windows")

// StartMonitoring недоступен: используйте MonitorReader(os.Stdin)
func (im *InterruptManager) StartMonitoring() error {
	return ErrHotkeysUnsupported
}
