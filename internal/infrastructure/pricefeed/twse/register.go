package twse

import (
	"folio/internal/application/port"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/pricefeed"
)

func init() {
	pricefeed.Register(Name, func(cfg *config.Config) (port.QuoteSource, error) {
		return NewClient(cfg.TWSE.BaseURL, pricefeed.NewHTTPClient(cfg.Prices.Timeout)), nil
	})
}
