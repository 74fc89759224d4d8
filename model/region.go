package model

import (
	"fmt"
	"strings"
)

// Region identifies an NWS River Forecast Center
type Region string

const (
	RegionABRFC Region = "ABRFC"
	RegionAPRFC Region = "APRFC"
	RegionCBRFC Region = "CBRFC"
	RegionCNRFC Region = "CNRFC"
	RegionLMRFC Region = "LMRFC"
	RegionMARFC Region = "MARFC"
	RegionMBRFC Region = "MBRFC"
	RegionNCRFC Region = "NCRFC"
	RegionNERFC Region = "NERFC"
	RegionNWRFC Region = "NWRFC"
	RegionOHRFC Region = "OHRFC"
	RegionSERFC Region = "SERFC"
	RegionWGRFC Region = "WGRFC"
)

// DefaultRegion is preselected in the dashboard
const DefaultRegion = RegionMARFC

var regions = []Region{
	RegionABRFC, RegionAPRFC, RegionCBRFC, RegionCNRFC, RegionLMRFC,
	RegionMARFC, RegionMBRFC, RegionNCRFC, RegionNERFC, RegionNWRFC,
	RegionOHRFC, RegionSERFC, RegionWGRFC,
}

// Regions returns all forecast centers in display order
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// ParseRegion validates an RFC identifier, ignoring case and surrounding space
func ParseRegion(s string) (Region, error) {
	id := Region(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range regions {
		if r == id {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown forecast center: %q", s)
}

func (r Region) String() string { return string(r) }

// ConfigPrefix is the object prefix of the region's standalone configuration
func (r Region) ConfigPrefix() string { return string(r) + "/Config" }

// HistoricalDataPrefix is the object prefix of the region's historical card files
func (r Region) HistoricalDataPrefix() string { return string(r) + "/historicalData" }

// GlobalPropertiesKey is the object key of the region's sa_global.properties
func (r Region) GlobalPropertiesKey() string { return string(r) + "/sa_global.properties" }
