package ledger

import (
	"github.com/kelseyhightower/envconfig"
)

const (
	HORIZON_CLIENT_TYPE = "horizon"
)

type Config struct {
	LedgerClientType string `envconfig:"LEDGER_CLIENT_TYPE" default:"horizon"` //horizon
	HorizonUrl       string `envconfig:"HORIZON_URL" default:"https://horizon.stellar.org"`
	ReceivingAccount string `envconfig:"RECEIVING_ACCOUNT" required:"true"`
	AssetCode        string `envconfig:"ASSET_CODE" default:"native"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
