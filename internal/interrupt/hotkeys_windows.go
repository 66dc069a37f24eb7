//go:build windows

package interrupt

import (
	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// HotkeysSupported сообщает, доступен ли системный хук клавиатуры
const HotkeysSupported = true

// StartMonitoring запускает мониторинг горячих клавиш:
// Shift+Enter делает снимок, Q завершает работу
func (im *InterruptManager) StartMonitoring() error {
	go im.monitorHotkeys()
	return nil
}

// monitorHotkeys мониторит горячие клавиши
func (im *InterruptManager) monitorHotkeys() {
	eventChan := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, eventChan); err != nil {
		im.loggerManager.LogError(err, "Не удалось установить хук клавиатуры")
		signal(im.quitChan)
		return
	}
	defer keyboard.Uninstall()

	shiftPressed := false

	for event := range eventChan {
		if event.Message == types.WM_KEYDOWN && (event.VKCode == types.VK_LSHIFT || event.VKCode == types.VK_RSHIFT) {
			shiftPressed = true
		}
		if event.Message == types.WM_KEYUP && (event.VKCode == types.VK_LSHIFT || event.VKCode == types.VK_RSHIFT) {
			shiftPressed = false
		}
		if event.Message == types.WM_KEYDOWN && event.VKCode == types.VK_RETURN && shiftPressed {
			signal(im.captureChan)
		}
		if event.Message == types.WM_KEYDOWN && event.VKCode == types.VK_Q {
			signal(im.quitChan)
			return
		}
	}
}
