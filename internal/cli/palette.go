package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmylchreest/labquant/internal/colour"
)

const previewWidth = 8

// formatPalette formats the palette according to the specified format.
// total is the pixel count the weights are fractions of.
func formatPalette(palette *colour.Palette, total int, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatHex(palette, showPreview), nil
	case "rgb":
		return formatRGB(palette, showPreview), nil
	case "json":
		jsonBytes, err := palette.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	case "table":
		return formatTable(palette, total, showPreview), nil
	default:
		return "", fmt.Errorf("unsupported palette format: %s (supported: hex, rgb, json, table)", format)
	}
}

// formatHex formats the palette as hex colour codes.
func formatHex(palette *colour.Palette, showPreview bool) string {
	var b strings.Builder
	for _, c := range palette.Colours {
		if showPreview {
			b.WriteString(colour.FormatColourWithPreview(c, previewWidth))
		} else {
			b.WriteString(c.Hex())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// formatRGB formats the palette as RGB values.
func formatRGB(palette *colour.Palette, showPreview bool) string {
	var b strings.Builder
	for _, c := range palette.Colours {
		if showPreview {
			b.WriteString(colour.ColourPreview(c, previewWidth) + " ")
		}
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// formatTable lists every cluster with its colour, pixel count and share.
func formatTable(palette *colour.Palette, total int, showPreview bool) string {
	headers := []string{"#", "Hex", "RGB", "Pixels", "Share"}
	if showPreview {
		headers = append(headers, "")
	}

	tbl := NewTable(headers...)
	tbl.AlignRight(0)
	tbl.AlignRight(3)
	tbl.AlignRight(4)

	for i, c := range palette.Colours {
		pixels := int(math.Round(palette.Weights[i] * float64(total)))
		row := []string{
			strconv.Itoa(i + 1),
			c.Hex(),
			c.String(),
			strconv.Itoa(pixels),
			fmt.Sprintf("%.1f%%", palette.Weights[i]*100),
		}
		if showPreview {
			row = append(row, colour.ColourPreview(c, previewWidth))
		}
		tbl.AddRow(row...)
	}
	return tbl.Render()
}
