package providers

import (
	"context"
	"net/http"

	"github.com/catdevcode/catos-flasher/api"
)

// Load returns a ReleaseFetcher configured from the release configuration.
// A nil client uses http.DefaultClient.
func Load(ctx context.Context, config api.FlasherReleaseConfig, client *http.Client) (ReleaseFetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}

	// Setup the Github provider.
	provider := github{
		client:  client,
		apiURL:  config.APIURL,
		retries: config.Retries,
	}

	err := provider.load(ctx)
	if err != nil {
		return nil, err
	}

	return &provider, nil
}
