package main

import (
	"os"

	"github.com/spf13/cobra"

	"mapcrop/internal/cli"
	"mapcrop/internal/interrupt"
	"mapcrop/internal/screenshot"
)

func main() {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Сохраняет снимки экрана в директорию карт по горячей клавише",
		RunE:  cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.String("maps-dir", "", "директория с изображениями карты")
	f.Int("display", 0, "номер монитора")
	f.Bool("trim-border", false, "обрезать черную рамку вокруг окна игры")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	cfg, log := env.Config, env.Logger

	bounds, err := screenshot.DisplayBounds(cfg.Capture.Display)
	if err != nil {
		return err
	}
	capturer := screenshot.NewCapturer(cfg.Paths.MapsDir, cfg.Capture.NameFormat, bounds, log)
	capturer.TrimBorder = cfg.Capture.TrimBorder

	// Инициализация менеджера прерываний
	interruptManager := interrupt.NewInterruptManager(log)
	if err := interruptManager.StartMonitoring(); err != nil {
		log.Warn("Горячие клавиши недоступны (%v), команды читаются из stdin", err)
		log.Info("⏸️ Enter: снимок экрана %v, q: выход", bounds)
		go interruptManager.MonitorReader(os.Stdin)
	} else {
		log.Info("🔥 Горячие клавиши: Shift+Enter делает снимок экрана %v, Q завершает работу", bounds)
	}

	count := 0
	for {
		select {
		case <-interruptManager.CaptureChan():
			if _, err := capturer.Capture(); err != nil {
				log.LogError(err, "Ошибка снимка экрана")
				continue
			}
			count++
		case <-interruptManager.QuitChan():
			log.Info("✅ Сохранено снимков: %d в %s", count, cfg.Paths.MapsDir)
			return nil
		}
	}
}
