package jsonio

import (
	"fmt"
	"io"

	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/routing"
)

// Process reads a request document, builds the network and writes the
// answers to its stat requests
func Process(r io.Reader, w io.Writer, opts routing.Options) error {
	doc, err := Read(r)
	if err != nil {
		return err
	}

	cat, err := catalogue.Load(doc.NetworkInput())
	if err != nil {
		return err
	}

	var router Router
	if settings, err := doc.Settings(); err == nil {
		if err := catalogue.ValidateSettings(settings); err != nil {
			return err
		}
		transportRouter, err := routing.NewTransportRouter(cat, settings, opts)
		if err != nil {
			return err
		}
		router = transportRouter
	}

	responses, err := NewRequestHandler(cat, router).Handle(doc.StatRequests)
	if err != nil {
		return fmt.Errorf("failed to answer stat requests: %w", err)
	}

	return WriteResponses(w, responses)
}
