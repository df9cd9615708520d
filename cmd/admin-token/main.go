// Команда admin-token выпускает токен оператора для /admin служебного сервера бота.
// Секрет и срок действия берутся из того же конфига, что и у бота.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/jwt"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
)

func main() {
	subject := flag.String("subject", "operator", "кому выдан токен, попадает в логи рассылки")
	flag.Parse()

	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env, os.Stderr)

	if cfg.AdminSecret == "" {
		logger.Error("admin secret is not set")
		os.Exit(1)
	}

	token, err := jwt.NewJWTMaker(cfg.AdminSecret, cfg.AdminTokenTTL).GenerateToken(*subject, jwt.RoleAdmin)
	if err != nil {
		logger.Error("failed to generate admin token", sl.Err(err))
		os.Exit(1)
	}
	fmt.Println(token)
}
