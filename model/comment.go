package model

// Comment is a cell annotation (an OOXML "comment", colloquially a "note").
type Comment struct {
	Text   string
	Author string
}

// Hyperlink attaches a URL (and optional display text) to a cell.
type Hyperlink struct {
	Target  string
	Display string
}

// FreezePane describes the frozen-row/frozen-column split point of a
// worksheet's view (the first Column columns and first Row rows stay
// visible while scrolling). Zero values mean "no freeze".
type FreezePane struct {
	Column Column
	Row    Row
}

// SheetProtection carries an opaque, round-tripped worksheet protection
// state. PasswordHash is the OOXML password hash as found in the source
// file; this library never computes or validates it.
type SheetProtection struct {
	PasswordHash string
	Sheet        bool
}

// ChartSeries is one data series of a ChartSpec: a display name and a
// contiguous range of values. Category labels are not per series; they are
// the enclosing ChartSpec's Categories range.
type ChartSeries struct {
	Name   string
	Values CellRange
}

// ChartType enumerates the structural chart kinds this library can specify
// (rendering is out of scope; only the structural specification round-trips).
type ChartType int

const (
	ChartBar ChartType = iota
	ChartLine
	ChartPie
	ChartScatter
)

// OOXMLElement returns the c:*Chart element name this chart type serializes
// to in xl/charts/chartN.xml (e.g. ChartBar -> "barChart").
func (t ChartType) OOXMLElement() string {
	switch t {
	case ChartLine:
		return "lineChart"
	case ChartPie:
		return "pieChart"
	case ChartScatter:
		return "scatterChart"
	default:
		return "barChart"
	}
}

// ChartTypeFromOOXML is the inverse of ChartType.OOXMLElement, used by the
// reader to recover a ChartType from the c:*Chart element name it finds.
func ChartTypeFromOOXML(elem string) ChartType {
	switch elem {
	case "lineChart":
		return ChartLine
	case "pieChart":
		return ChartPie
	case "scatterChart":
		return ChartScatter
	default:
		return ChartBar
	}
}

// ChartSpec is a structural chart specification: enough to round-trip
// xl/charts/chartN.xml without rendering it.
type ChartSpec struct {
	Type       ChartType
	Title      string
	Categories CellRange
	Series     []ChartSeries
	Anchor     ARef // top-left anchor cell of the chart's drawing frame
}
