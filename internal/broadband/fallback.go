package broadband

import "github.com/mikedoall/home-data-hub/internal/model"

// RegionalSource marks a result assembled from the fixed national
// provider list rather than address-level data. Consumers use it to
// distinguish the approximation from a genuine resolution.
const RegionalSource = "regional-approximation"

// regionalMessage is the advisory attached to every fallback result.
const regionalMessage = "Using regional approximation - no address-specific data available. " +
	"These providers may not serve this exact address."

// RegionalFallback returns the fixed regional-approximation result used
// when every source came back empty or failed. Presenting commonly
// available national providers beats an empty state for end users; the
// message and source fields make the approximation unmistakable.
func RegionalFallback() *model.BroadbandResult {
	return &model.BroadbandResult{
		Providers: []model.NormalizedProvider{
			{
				Name:         "AT&T",
				Technologies: []string{"Fiber", "DSL"},
				MaxDownload:  1000,
				MaxUpload:    1000,
				Source:       RegionalSource,
			},
			{
				Name:         "Spectrum",
				Technologies: []string{"Cable"},
				MaxDownload:  940,
				MaxUpload:    35,
				Source:       RegionalSource,
			},
			{
				Name:         "T-Mobile",
				Technologies: []string{"Fixed Wireless"},
				MaxDownload:  245,
				MaxUpload:    31,
				Source:       RegionalSource,
			},
		},
		Message: regionalMessage,
		Source:  RegionalSource,
		Error:   false,
	}
}
