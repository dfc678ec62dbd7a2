package artifact

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of an artifact payload
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPMML Format = "pmml"
)

// FormatFromPath picks the artifact format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".pmml", ".xml":
		return FormatPMML, nil
	default:
		return "", fmt.Errorf("%w: unsupported artifact extension %q", ErrMalformedArtifact, filepath.Ext(path))
	}
}

// Decode parses a payload in the given format and validates the result
func Decode(format Format, data []byte) (*ModelArtifact, error) {
	var (
		b   Bundle
		err error
	)
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &b)
	case FormatYAML:
		err = yaml.Unmarshal(data, &b)
	case FormatPMML:
		b, err = decodePMML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedArtifact, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrMalformedArtifact, format, err)
	}
	return New(b)
}

// decodePMML reads a PMML RegressionModel. The scaler and the cols_to_scale
// list travel in Extension elements so fitted parameters keep their exact decimal form.
func decodePMML(data []byte) (Bundle, error) {
	var b Bundle

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return b, fmt.Errorf("failed to parse XML: %v", err)
	}

	if app := doc.FindElement("//Header/Application"); app != nil {
		b.Name = app.SelectAttrValue("name", "")
		b.Version = app.SelectAttrValue("version", "")
	}

	model := doc.FindElement("//RegressionModel")
	if model == nil {
		return b, fmt.Errorf("RegressionModel element not found")
	}
	if norm := model.SelectAttrValue("normalizationMethod", "logit"); norm != "logit" {
		return b, fmt.Errorf("unsupported normalizationMethod %q", norm)
	}

	table := model.FindElement("./RegressionTable")
	if table == nil {
		return b, fmt.Errorf("RegressionTable element not found")
	}
	intercept, err := floatAttr(table, "intercept")
	if err != nil {
		return b, err
	}
	b.Model.Intercept = intercept
	for _, p := range table.FindElements("./NumericPredictor") {
		c, err := floatAttr(p, "coefficient")
		if err != nil {
			return b, err
		}
		b.Features = append(b.Features, p.SelectAttrValue("name", ""))
		b.Model.Coefficients = append(b.Model.Coefficients, c)
	}

	ext := model.FindElement("./Extension[@name='scaler']")
	if ext == nil {
		return b, fmt.Errorf("scaler extension not found")
	}
	b.Scaler.Kind = ScalerKind(ext.SelectAttrValue("kind", ""))
	for _, col := range ext.FindElements("./Column") {
		name := col.SelectAttrValue("name", "")
		scale, err := floatAttr(col, "scale")
		if err != nil {
			return b, err
		}
		b.Scaler.Columns = append(b.Scaler.Columns, name)
		b.Scaler.Scale = append(b.Scaler.Scale, scale)

		switch b.Scaler.Kind {
		case ScalerStandard:
			mean, err := floatAttr(col, "mean")
			if err != nil {
				return b, err
			}
			b.Scaler.Mean = append(b.Scaler.Mean, mean)
		default:
			offset, err := floatAttr(col, "min")
			if err != nil {
				return b, err
			}
			b.Scaler.Min = append(b.Scaler.Min, offset)
		}
	}

	if cols := model.FindElement("./Extension[@name='cols_to_scale']"); cols != nil {
		for _, col := range cols.FindElements("./Column") {
			b.ColsToScale = append(b.ColsToScale, col.SelectAttrValue("name", ""))
		}
	}

	return b, nil
}

func floatAttr(e *etree.Element, key string) (float64, error) {
	attr := e.SelectAttr(key)
	if attr == nil {
		return 0, fmt.Errorf("%s element missing %s attribute", e.Tag, key)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s on %s: %v", key, e.Tag, err)
	}
	return v, nil
}
