package broadband

import "github.com/mikedoall/home-data-hub/internal/model"

// Normalize groups raw records by provider identifier, deduplicates
// technology names, and keeps the running maximum of advertised speeds.
// Output order is the first-seen order of provider identifiers in the
// input, which keeps results reproducible across runs.
func Normalize(records []model.RawProviderRecord, source string) []model.NormalizedProvider {
	byFRN := make(map[string]*model.NormalizedProvider, len(records))
	var order []string

	for _, rec := range records {
		p, ok := byFRN[rec.FRN]
		if !ok {
			name := rec.ProviderName
			if name == "" {
				name = "Unknown Provider"
			}
			p = &model.NormalizedProvider{
				Name:   name,
				Source: source,
			}
			byFRN[rec.FRN] = p
			order = append(order, rec.FRN)
		}

		tech := TechnologyName(rec.TechnologyCode)
		if !containsString(p.Technologies, tech) {
			p.Technologies = append(p.Technologies, tech)
		}

		// Running maximum, never an average and never the last record's value.
		if down := int(rec.MaxDownload); down > p.MaxDownload {
			p.MaxDownload = down
		}
		if up := int(rec.MaxUpload); up > p.MaxUpload {
			p.MaxUpload = up
		}
	}

	providers := make([]model.NormalizedProvider, 0, len(order))
	for _, frn := range order {
		providers = append(providers, *byFRN[frn])
	}
	return providers
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
