// Package report exports a map view as a spreadsheet.
package report

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

// Sheet names.
const (
	SheetCities = "Cidades"
	SheetLegend = "Legenda"
	SheetCases  = "Casos"
)

var (
	cityHeader = []string{"Cidade", "Latitude", "Longitude", "Desaparecidos", "Localizados", "Valor", "Intensidade", "Cor"}
	caseHeader = []string{"Cidade", "ID", "Nome", "Idade", "Sexo", "Situação", "Desaparecido em"}
)

// WriteXLSX writes the plotted markers, the legend and the cases of cities
// as an XLSX workbook to w.
func WriteXLSX(w io.Writer, v casemap.MapView, cities []casemap.CityCaseStats) error {
	f, err := Build(v, cities)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, v casemap.MapView, cities []casemap.CityCaseStats) error {
	f, err := Build(v, cities)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// Build assembles the workbook in memory.
func Build(v casemap.MapView, cities []casemap.CityCaseStats) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(SheetCities)
	if err != nil {
		return nil, eris.Wrap(err, "report: add cities sheet")
	}
	addStrings(sheet, cityHeader)
	for _, m := range v.Markers {
		row := sheet.AddRow()
		row.AddCell().SetString(m.City)
		row.AddCell().SetFloat(m.Lat)
		row.AddCell().SetFloat(m.Lon)
		row.AddCell().SetInt(m.MissingCount)
		row.AddCell().SetInt(m.FoundCount)
		row.AddCell().SetInt(m.BaseValue)
		row.AddCell().SetFloat(m.Intensity)
		row.AddCell().SetString(casemap.ColorForIntensity(m.Intensity, v.Category))
	}

	sheet, err = f.AddSheet(SheetLegend)
	if err != nil {
		return nil, eris.Wrap(err, "report: add legend sheet")
	}
	addStrings(sheet, []string{"Filtro", v.Status.String()})
	if v.Legend == nil {
		addStrings(sheet, []string{"Sem dados"})
	} else {
		addStrings(sheet, []string{"Título", v.Legend.Title})
		addInt(sheet, "Mínimo", v.Legend.Min)
		addInt(sheet, "Mediana", v.Legend.Mid)
		addInt(sheet, "Máximo", v.Legend.Max)
		addStrings(sheet, []string{"Cores", v.Legend.Gradient[0], v.Legend.Gradient[1], v.Legend.Gradient[2]})
	}

	sheet, err = f.AddSheet(SheetCases)
	if err != nil {
		return nil, eris.Wrap(err, "report: add cases sheet")
	}
	addStrings(sheet, caseHeader)
	for _, c := range cities {
		for _, cs := range c.Cases {
			row := sheet.AddRow()
			row.AddCell().SetString(c.City)
			row.AddCell().SetInt64(cs.ID)
			row.AddCell().SetString(cs.Name)
			row.AddCell().SetInt(cs.Age)
			row.AddCell().SetString(cs.Sex)
			row.AddCell().SetString(cs.Status.APIValue())
			row.AddCell().SetString(formatDate(cs.MissingSince))
		}
	}

	return f, nil
}

func addStrings(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addInt(sheet *xlsx.Sheet, label string, v int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(abitus.Cuiaba).Format("02/01/2006")
}
