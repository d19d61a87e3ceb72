package sheet

import (
	"folio/internal/application/port"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/pricefeed"
)

func init() {
	pricefeed.Register(Name, func(cfg *config.Config) (port.QuoteSource, error) {
		return New(cfg.Sheet.Source, cfg.Sheet.Reload, pricefeed.NewHTTPClient(cfg.Prices.Timeout)), nil
	})
}
