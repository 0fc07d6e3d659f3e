package endpoints

import (
	"github.com/selahapp/selah/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	eps := []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Devotional bundle endpoints
		&GenerateDevotionalEndpoint{},
		&GetDevotionalEndpoint{},

		// Cache endpoints
		&ListCacheKeysEndpoint{},
		&ClearCacheEndpoint{},

		// Source resolution and media endpoints
		&ResolveVerseEndpoint{},
		&GenerateImageEndpoint{},
		&ChatEndpoint{},
		&SpeakEndpoint{},

		// Topic reflection and voice companion endpoints
		&DeepDiveEndpoint{},
		&AutismSupportEndpoint{},
		&VoiceChatEndpoint{},
	}

	// Standalone section routes
	eps = append(eps, sectionEndpoints()...)

	return eps
}
