package broadband

import "fmt"

// technologyNames maps FCC Form 477 technology codes to human-readable
// names. Codes absent from the table are echoed back instead of failing:
// an unknown delivery medium must never abort a resolution.
var technologyNames = map[string]string{
	"10": "Copper Wireline",
	"11": "DSL",
	"12": "DSL - ADSL",
	"13": "DSL - SDSL",
	"14": "DSL - HDSL",
	"15": "DSL - VDSL",
	"16": "DSL - IDSL",
	"20": "Optical Carrier/Fiber to the End User",
	"30": "Cable Modem - DOCSIS 1, 1.1, 2.0",
	"31": "Cable Modem - DOCSIS 3.0",
	"32": "Cable Modem - DOCSIS 3.1",
	"40": "Terrestrial Fixed Wireless",
	"41": "Terrestrial Fixed Wireless - Unlicensed",
	"42": "Terrestrial Fixed Wireless - Licensed",
	"43": "Terrestrial Fixed Wireless - MMDS BRS",
	"50": "Satellite",
	"60": "Electric Power Line",
	"70": "All Other",
	"90": "Other",
}

// TechnologyName translates an FCC technology code into its
// human-readable name.
func TechnologyName(code string) string {
	if name, ok := technologyNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Technology Code %s", code)
}
