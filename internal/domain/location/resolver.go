package location

// Stocked is anything that declares where it can be picked up.
// A nil result means no availability was declared.
type Stocked interface {
	PickupLocations() []string
}

// Option is one entry of the checkout location picker
type Option struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Common returns the pickup locations shared by every item, in the order the
// first item lists them. No items, or any item without locations, gives an
// empty result.
func Common[T Stocked](items []T) []string {
	result := make([]string, 0)
	if len(items) == 0 {
		return result
	}

	rest := make([]map[string]struct{}, 0, len(items)-1)
	for _, item := range items[1:] {
		set := make(map[string]struct{})
		for _, loc := range item.PickupLocations() {
			set[loc] = struct{}{}
		}
		if len(set) == 0 {
			return result
		}
		rest = append(rest, set)
	}

	seen := make(map[string]struct{})
	for _, loc := range items[0].PickupLocations() {
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		if inAll(loc, rest) {
			result = append(result, loc)
		}
	}
	return result
}

func inAll(loc string, sets []map[string]struct{}) bool {
	for _, set := range sets {
		if _, ok := set[loc]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether label is one of the common locations
func Contains(common []string, label string) bool {
	for _, loc := range common {
		if loc == label {
			return true
		}
	}
	return false
}

// Options lays out every store location for the picker. Only common
// locations are selectable.
func Options(all, common []string) []Option {
	options := make([]Option, 0, len(all))
	for _, label := range all {
		options = append(options, Option{Label: label, Enabled: Contains(common, label)})
	}
	return options
}
