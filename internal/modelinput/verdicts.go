package modelinput

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// Files describing a model next to its descriptor.
const (
	ColoredFile  = "iscolored"
	EquivPTFile  = "equiv_pt"
	EquivColFile = "equiv_col"
	VerdictsFile = "GenericPropertiesVerdict.xml"
)

// verdictNames maps verdict references to characteristic names.
var verdictNames = map[string]string{
	"ORDINARY":             "Ordinary",
	"SIMPLE_FREE_CHOICE":   "Simple Free Choice",
	"EXTENDED_FREE_CHOICE": "Extended Free Choice",
	"STATE_MACHINE":        "State Machine",
	"MARKED_GRAPH":         "Marked Graph",
	"CONNECTED":            "Connected",
	"STRONGLY_CONNECTED":   "Strongly Connected",
	"SOURCE_PLACE":         "Source Place",
	"SINK_PLACE":           "Sink Place",
	"SOURCE_TRANSITION":    "Source Transition",
	"SINK_TRANSITION":      "Sink Transition",
	"LOOP_FREE":            "Loop Free",
	"CONSERVATIVE":         "Conservative",
	"SUBCONSERVATIVE":      "Sub-Conservative",
	"NESTED_UNITS":         "Nested Units",
	"SAFE":                 "Safe",
	"DEADLOCK":             "Deadlock",
	"REVERSIBLE":           "Reversible",
	"QUASI_LIVE":           "Quasi Live",
	"LIVE":                 "Live",
}

type verdictDocument struct {
	XMLName  xml.Name `xml:"toolspecific"`
	Verdicts []struct {
		Reference string `xml:"reference,attr"`
		Value     string `xml:"value,attr"`
	} `xml:"verdict"`
}

// ReadCharacteristics reads the structural description of the model in dir.
// Marker files that are absent count as false; a missing verdict document
// leaves every structural property unknown.
func ReadCharacteristics(dir string, logger *slog.Logger) (map[string]values.Value, error) {
	if logger == nil {
		logger = slog.Default()
	}

	colored, err := readMarker(dir, ColoredFile)
	if err != nil {
		return nil, err
	}
	equivPT, err := readMarker(dir, EquivPTFile)
	if err != nil {
		return nil, err
	}
	equivCol, err := readMarker(dir, EquivColFile)
	if err != nil {
		return nil, err
	}

	chars := make(map[string]values.Value, len(verdictNames)+2)
	chars[dataset.PlaceTransition] = values.Bool(!colored || equivPT)
	chars[dataset.Colored] = values.Bool(colored || equivCol)
	for _, name := range verdictNames {
		chars[name] = values.Unknown()
	}

	data, err := os.ReadFile(filepath.Join(dir, VerdictsFile))
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("No structural verdicts for model", "dir", dir)
		return chars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading verdicts: %w", err)
	}

	var doc verdictDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", VerdictsFile, err)
	}
	for _, v := range doc.Verdicts {
		name, ok := verdictNames[v.Reference]
		if !ok {
			logger.Debug("Ignoring unknown verdict", "reference", v.Reference)
			continue
		}
		chars[name] = verdictValue(v.Value)
	}
	return chars, nil
}

func verdictValue(raw string) values.Value {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return values.Bool(true)
	case "false":
		return values.Bool(false)
	default:
		return values.Unknown()
	}
}

// readMarker reports whether the first line of a marker file is a true value.
func readMarker(dir, name string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	v := values.Parse(strings.TrimSpace(line))
	b, ok := v.AsBool()
	return ok && b, nil
}
