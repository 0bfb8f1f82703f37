package services

import (
	"math"
	"strings"
)

// MinorUnits converts a catalog price to currency minor units, rounding to
// the nearest unit. 49.99 must become 4999, never 4998 or 5000.
func MinorUnits(unitPrice float64) int64 {
	return int64(math.Round(unitPrice * 100))
}

// placeholder strings the catalog feed leaves behind for missing images
var imagePlaceholders = map[string]struct{}{
	"nan":       {},
	"null":      {},
	"undefined": {},
	"none":      {},
}

// PrimaryImage returns the first well-formed http(s) URL from a
// pipe-separated image list, discarding placeholder junk. Empty result means
// no usable image.
func PrimaryImage(images string) string {
	for _, part := range strings.Split(images, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, bad := imagePlaceholders[strings.ToLower(part)]; bad {
			continue
		}
		if strings.HasPrefix(part, "http://") || strings.HasPrefix(part, "https://") {
			return part
		}
	}
	return ""
}
