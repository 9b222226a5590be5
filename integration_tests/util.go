package integration_tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/db"
	"github.com/pertoken-app/paygate/db/migrations"
	"github.com/pertoken-app/paygate/ledger"
	"github.com/pertoken-app/paygate/lib/logging"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun/migrate"
)

func PaygateTestServiceInit(ledgerMock ledger.LedgerClientWrapper, dbName string) (svc *service.PaygateService, err error) {
	c := &service.Config{
		DatabaseUri:   fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName),
		JWTSecret:     []byte("SECRET"),
		InvoiceExpiry: 3600,
		ProofValidity: 86400,
	}

	dbConn, err := db.Open(c)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	_, err = migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	logger := logging.Logger(c.LogFilePath)
	svc = &service.PaygateService{
		Config: c,
		DB:     dbConn,
		Ledger: ledgerMock,
		Logger: logger,
	}

	svc.InvoicePubSub = service.NewPubsub()
	return svc, nil
}

func clearTable(svc *service.PaygateService, tableName string) error {
	_, err := svc.DB.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	return err
}

type TestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func checkErrResponse(suite *TestSuite, rec *httptest.ResponseRecorder) *responses.ErrorResponse {
	errorResponse := &responses.ErrorResponse{}
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(errorResponse))
	return errorResponse
}
