package main

import (
	"errors"
	"log/slog"

	"github.com/diarycardhq/diarycard/cmd/diarycard/api"
	"github.com/diarycardhq/diarycard/internal/core"
)

func main() {
	core.LoadConfig() // nolint: errcheck
	core.InitLogger()

	db, err := core.DatabaseFactory()
	if err != nil {
		slog.Error(err.Error())
		panic(errors.New("failed to setup database connection"))
	}

	api.Start(db)
}
