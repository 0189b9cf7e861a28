package stage

import (
	"fmt"
	"strings"
)

// Kind identifies one of the enhancement filters. The numeric order of the
// constants is the order in which filters are always applied.
type Kind int

const (
	Mean Kind = iota
	Median
	Gaussian
	Bilateral
	HistogramEqualization
	CLAHE
	UnsharpMask
)

// Order is the fixed application order, independent of how a selection was
// made.
var Order = []Kind{Mean, Median, Gaussian, Bilateral, HistogramEqualization, CLAHE, UnsharpMask}

var kindNames = [...]string{
	Mean:                  "mean",
	Median:                "median",
	Gaussian:              "gaussian",
	Bilateral:             "bilateral",
	HistogramEqualization: "histeq",
	CLAHE:                 "clahe",
	UnsharpMask:           "unsharp",
}

var kindLabels = [...]string{
	Mean:                  "Mean Filter",
	Median:                "Median Filter",
	Gaussian:              "Gaussian Filter",
	Bilateral:             "Bilateral Filter",
	HistogramEqualization: "Histogram Equalization",
	CLAHE:                 "CLAHE (Adaptive Hist Eq)",
	UnsharpMask:           "Unsharp Mask",
}

func (k Kind) valid() bool {
	return k >= Mean && k <= UnsharpMask
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) Label() string {
	if !k.valid() {
		return k.String()
	}
	return kindLabels[k]
}

// ParseKind accepts the slug, the display label, or a few common aliases.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Order {
		if strings.EqualFold(s, kindNames[k]) || strings.EqualFold(s, kindLabels[k]) {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "box", "blur":
		return Mean, nil
	case "hist", "hist-eq", "histogram", "equalize":
		return HistogramEqualization, nil
	case "unsharp-mask", "sharpen":
		return UnsharpMask, nil
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

// Set is an immutable selection of filters.
type Set uint8

func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// ParseSet parses filter names, also splitting comma separated values.
func ParseSet(values []string) (Set, error) {
	var s Set
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, err := ParseKind(name)
			if err != nil {
				return 0, err
			}
			s = s.With(k)
		}
	}
	return s, nil
}

// Preset is the "Improved Preset Enhancement" chain. It intentionally holds no
// denoising stage.
var Preset = NewSet(CLAHE, UnsharpMask)

func (s Set) With(k Kind) Set {
	if !k.valid() {
		return s
	}
	return s | 1<<uint(k)
}

func (s Set) Has(k Kind) bool {
	return k.valid() && s&(1<<uint(k)) != 0
}

// Kinds returns the selected filters in application order.
func (s Set) Kinds() []Kind {
	kinds := make([]Kind, 0, len(Order))
	for _, k := range Order {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s Set) Names() []string {
	names := make([]string, 0, len(Order))
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return names
}

// Resolve returns the filters that will run: the preset when enabled, else the
// individual selection, always in application order.
func Resolve(s Set, preset bool) []Kind {
	if preset {
		return Preset.Kinds()
	}
	return s.Kinds()
}
