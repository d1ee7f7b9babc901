package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/core/school"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

type stores struct {
	learners school.LearnerStore
	classes  school.ClassCatalog
	terms    school.TermRegistry
	fees     school.FeeStore
	payments school.PaymentStore
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	z, err := logsvc.NewZap(conf.Log)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(z.Named("api")), conf)
	defer logger.Close()
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB
	st, closeDB, err := setUpStores(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer closeDB()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	rules, err := phone.RulesFor(conf.Phone.Rules)
	if err != nil {
		logger.Fatal(fmt.Sprintf("phone rules: %v", err), err)
	}
	normalizer := phone.NewNormalizer(rules)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	phone.InitValidators(validate, translator, normalizer)
	fee.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Phones:       normalizer,
		SchoolSvc:    school.NewService(st.learners, st.classes, st.terms, normalizer, validate, conf),
		FeeSvc:       fee.NewService(st.learners, st.classes, st.terms, st.fees, st.payments, normalizer, validate, logger),
		PromotionSvc: promotion.NewService(st.learners, st.classes, conf, logger),
		ReconcileSvc: reconcile.NewService(st.learners, st.classes, normalizer, conf, logger),
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStores opens the stores of the configured database engine: `postgres`, or `dummy` (in memory).
func setUpStores(conf *core.Config) (stores, func(), error) {
	if conf.Database.Engine == "dummy" {
		db, err := dummydb.Open()
		if err != nil {
			return stores{}, nil, err
		}
		return stores{
			learners: dummydb.NewLearnerStore(db),
			classes:  dummydb.NewClassCatalog(db),
			terms:    dummydb.NewTermRegistry(db),
			fees:     dummydb.NewFeeStore(db),
			payments: dummydb.NewPaymentStore(db),
		}, func() {}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		learners: sqlxrepos.NewLearnerStore(db),
		classes:  sqlxrepos.NewClassCatalog(db),
		terms:    sqlxrepos.NewTermRegistry(db),
		fees:     sqlxrepos.NewFeeStore(db),
		payments: sqlxrepos.NewPaymentStore(db),
	}, func() { _ = db.Close() }, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
