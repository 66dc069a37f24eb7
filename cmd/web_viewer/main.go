package main

import (
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"mapcrop/internal/cli"
	"mapcrop/internal/database"
)

func main() {
	cmd := &cobra.Command{
		Use:   "web_viewer",
		Short: "Показывает изображения карты с началом координат и пресетами в браузере",
		RunE:  cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.String("maps-dir", "", "директория с изображениями карты")
	f.String("offsets", "", "файл смещений")
	f.String("presets", "", "файл пресетов")
	f.String("host", "", "адрес для прослушивания")
	f.String("port", "", "порт")
	f.Int("save-to-db", 0, "1: показывать также последний прогон из MySQL")
	f.String("dsn", "", "MySQL DSN")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	cfg, log := env.Config, env.Logger

	srv, err := newServer(cfg, log)
	if err != nil {
		return err
	}

	// Подключаемся к базе данных, только если она включена
	if cfg.Database.SaveToDB == 1 {
		db, err := database.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		srv.db = database.NewDatabaseManager(db, log)
		log.Info("Успешно подключились к базе данных")
	}

	addr := net.JoinHostPort(cfg.WebViewer.Host, cfg.WebViewer.Port)
	log.Info("🚀 Просмотрщик карт запущен, откройте http://%s в браузере", addr)

	return http.ListenAndServe(addr, srv.routes())
}
