package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/core/school"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

var logger *logsvc.ZapLogger

func main() {
	conf := core.NewConfig()
	conf.Log.Format = "console"

	z, err := logsvc.NewZap(conf.Log)
	if err != nil {
		panic(err)
	}
	logger = logsvc.NewZapLogger(z.Named("admin"))
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(context.Background(), db))

	rules, err := phone.RulesFor(conf.Phone.Rules)
	errAndDie(err)
	normalizer := phone.NewNormalizer(rules)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	phone.InitValidators(validate, translator, normalizer)

	learners := sqlxrepos.NewLearnerStore(db)
	classes := sqlxrepos.NewClassCatalog(db)

	// start CLI
	cli := commandLine{
		db:           db.DB,
		out:          os.Stdout,
		schoolSvc:    school.NewService(learners, classes, sqlxrepos.NewTermRegistry(db), normalizer, validate, conf),
		promotionSvc: promotion.NewService(learners, classes, conf, logger),
		reconcileSvc: reconcile.NewService(learners, classes, normalizer, conf, logger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
	}
}
