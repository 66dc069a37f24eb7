package main

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"mapcrop/internal/cli"
	"mapcrop/internal/database"
	"mapcrop/internal/logger"
)

func main() {
	cmd := &cobra.Command{
		Use:   "db_init",
		Short: "Создает базу и таблицы для прогонов выравнивания",
		RunE:  cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	cmd.Flags().Bool("recreate", false, "удалить базу перед созданием")
	cmd.Flags().String("dsn", "", "MySQL DSN")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	recreate, _ := cmd.Flags().GetBool("recreate")
	return initDatabase(env.Config.Database.DSN, recreate, env.Logger)
}

func initDatabase(dsn string, recreate bool, log *logger.LoggerManager) error {
	dbCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("некорректный DSN: %w", err)
	}
	name := dbCfg.DBName
	if name == "" {
		return fmt.Errorf("в DSN не указана база данных")
	}

	// Подключаемся к MySQL без указания базы
	dbCfg.DBName = ""
	db, err := database.Open(dbCfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	quoted := "`" + strings.ReplaceAll(name, "`", "``") + "`"
	if recreate {
		if _, err := db.Exec("DROP DATABASE IF EXISTS " + quoted); err != nil {
			return fmt.Errorf("ошибка удаления базы: %w", err)
		}
		log.Info("База данных %s удалена (если была)", name)
	}

	if _, err := db.Exec("CREATE DATABASE IF NOT EXISTS " + quoted + " CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"); err != nil {
		return fmt.Errorf("ошибка создания базы: %w", err)
	}
	log.Info("База данных %s готова", name)

	// Подключаемся к новой базе
	db2, err := database.Open(dsn)
	if err != nil {
		return err
	}
	defer db2.Close()

	if err := database.EnsureSchema(db2); err != nil {
		return err
	}
	log.Info("Таблицы alignment_runs и image_offsets созданы")
	log.Info("Инициализация базы завершена!")
	return nil
}
