package streaming

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/adnsv/xlpatch/model"
)

// rowEncoder writes RowData values to a spool file in a compact binary form
// (spec.md §4.11 phase 1: "append a compact binary representation to a
// temporary spool file per sheet"). Text values are either interned through
// intern (shared-strings modes, where the spool holds only the index) or
// written inline (SSTNone), in which case a repeated string is written again
// each time it occurs.
type rowEncoder struct {
	w      *bufio.Writer
	intern func(s string) uint32 // nil under SSTNone
}

func newRowEncoder(w io.Writer, intern func(s string) uint32) *rowEncoder {
	return &rowEncoder{w: bufio.NewWriter(w), intern: intern}
}

func (e *rowEncoder) Flush() error { return e.w.Flush() }

func (e *rowEncoder) encodeRow(row RowData) error {
	if err := writeUvarint(e.w, uint64(row.Row)); err != nil {
		return err
	}
	if err := writeUvarint(e.w, uint64(len(row.Cells))); err != nil {
		return err
	}
	for _, c := range row.Cells {
		if err := e.encodeCell(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *rowEncoder) encodeCell(c CellData) error {
	if err := writeUvarint(e.w, uint64(c.Col)); err != nil {
		return err
	}
	styleTag := uint64(0)
	if c.HasStyle {
		styleTag = uint64(c.StyleID) + 1
	}
	if err := writeUvarint(e.w, styleTag); err != nil {
		return err
	}
	return e.encodeValue(c.Value, false)
}

// encodeValue writes v's kind byte followed by its kind-specific payload. A
// KindFormula value with a non-formula cached result recurses exactly one
// level to encode that cached value; a doubly-nested formula cache (which
// the model never produces) is dropped rather than followed, avoiding
// unbounded recursion over malformed input.
//
// forceInline suppresses shared-string interning for text payloads: a
// formula's cached text result is always written back as a literal string
// (t="str" in the worksheet XML is defined to hold the literal value, never
// an SST index), so the one recursive call for a cached value always passes
// true regardless of the sheet's configured SharedStringsMode.
func (e *rowEncoder) encodeValue(v model.CellValue, forceInline bool) error {
	if err := e.w.WriteByte(byte(v.Kind)); err != nil {
		return err
	}
	switch v.Kind {
	case model.KindEmpty:
		return nil
	case model.KindText:
		return e.encodeText(v.Text, forceInline)
	case model.KindRichText:
		return e.encodeText(concatRuns(v.Runs), forceInline)
	case model.KindNumber:
		return writeFloat64(e.w, v.Number)
	case model.KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return e.w.WriteByte(b)
	case model.KindDateTime:
		return writeInt64(e.w, v.DateVal.UTC().UnixNano())
	case model.KindError:
		return e.encodeRaw(string(v.ErrKind))
	case model.KindFormula:
		if err := e.encodeRaw(v.FormulaText); err != nil {
			return err
		}
		if v.CachedValue != nil && v.CachedValue.Kind != model.KindFormula {
			if err := e.w.WriteByte(1); err != nil {
				return err
			}
			return e.encodeValue(*v.CachedValue, true)
		}
		return e.w.WriteByte(0)
	default:
		return fmt.Errorf("streaming: unencodable cell value kind %d", v.Kind)
	}
}

// encodeText writes a flag byte (1 = shared-string index follows, 0 = raw
// string follows) then the payload, interning through e.intern unless
// forceInline is set.
func (e *rowEncoder) encodeText(s string, forceInline bool) error {
	if e.intern != nil && !forceInline {
		if err := e.w.WriteByte(1); err != nil {
			return err
		}
		return writeUvarint(e.w, uint64(e.intern(s)))
	}
	if err := e.w.WriteByte(0); err != nil {
		return err
	}
	return e.encodeRaw(s)
}

func (e *rowEncoder) encodeRaw(s string) error {
	if err := writeUvarint(e.w, uint64(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

// wireValue is the phase-2 decoded form of a cell value: enough to emit the
// worksheet XML without ever reconstructing a model.CellValue (dates stay
// serials, text stays an SST index or raw string).
type wireValue struct {
	Kind     model.ValueKind
	Number   float64
	Bool     bool
	DateNano int64
	ErrKind  string
	UseSST   bool
	SSTIndex uint32
	Text     string

	FormulaText string
	HasCached   bool
	Cached      *wireValue
}

type wireCell struct {
	Col      model.Column
	HasStyle bool
	StyleID  model.StyleID
	Value    wireValue
}

type rowDecoder struct {
	r *bufio.Reader
}

func newRowDecoder(r io.Reader) *rowDecoder { return &rowDecoder{r: bufio.NewReader(r)} }

// decodeRow reads one row, returning io.EOF once the spool is exhausted.
func (d *rowDecoder) decodeRow() (model.Row, []wireCell, error) {
	rowIdx, err := readUvarint(d.r)
	if err != nil {
		return 0, nil, err
	}
	count, err := readUvarint(d.r)
	if err != nil {
		return 0, nil, err
	}
	cells := make([]wireCell, count)
	for i := range cells {
		c, err := d.decodeCell()
		if err != nil {
			return 0, nil, err
		}
		cells[i] = c
	}
	return model.Row(rowIdx), cells, nil
}

func (d *rowDecoder) decodeCell() (wireCell, error) {
	col, err := readUvarint(d.r)
	if err != nil {
		return wireCell{}, err
	}
	styleTag, err := readUvarint(d.r)
	if err != nil {
		return wireCell{}, err
	}
	v, err := d.decodeValue()
	if err != nil {
		return wireCell{}, err
	}
	c := wireCell{Col: model.Column(col), Value: v}
	if styleTag > 0 {
		c.HasStyle = true
		c.StyleID = model.StyleID(styleTag - 1)
	}
	return c, nil
}

func (d *rowDecoder) decodeValue() (wireValue, error) {
	kindByte, err := d.r.ReadByte()
	if err != nil {
		return wireValue{}, err
	}
	v := wireValue{Kind: model.ValueKind(kindByte)}
	switch v.Kind {
	case model.KindEmpty:
	case model.KindText, model.KindRichText:
		v.Kind = model.KindText
		useSST, sstIdx, text, err := d.decodeText()
		if err != nil {
			return wireValue{}, err
		}
		v.UseSST, v.SSTIndex, v.Text = useSST, sstIdx, text
	case model.KindNumber:
		v.Number, err = readFloat64(d.r)
	case model.KindBool:
		var b byte
		b, err = d.r.ReadByte()
		v.Bool = b != 0
	case model.KindDateTime:
		v.DateNano, err = readInt64(d.r)
	case model.KindError:
		v.ErrKind, err = d.decodeRaw()
	case model.KindFormula:
		v.FormulaText, err = d.decodeRaw()
		if err != nil {
			return wireValue{}, err
		}
		var has byte
		has, err = d.r.ReadByte()
		if err != nil {
			return wireValue{}, err
		}
		if has == 1 {
			cached, cerr := d.decodeValue()
			if cerr != nil {
				return wireValue{}, cerr
			}
			v.HasCached = true
			v.Cached = &cached
		}
	default:
		return wireValue{}, fmt.Errorf("streaming: undecodable cell value kind %d", kindByte)
	}
	return v, err
}

func (d *rowDecoder) decodeText() (useSST bool, idx uint32, text string, err error) {
	flag, err := d.r.ReadByte()
	if err != nil {
		return false, 0, "", err
	}
	if flag == 1 {
		v, err := readUvarint(d.r)
		return true, uint32(v), "", err
	}
	s, err := d.decodeRaw()
	return false, 0, s, err
}

func (d *rowDecoder) decodeRaw() (string, error) {
	n, err := readUvarint(d.r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func concatRuns(runs []model.RichTextRun) string {
	var sb []byte
	for _, r := range runs {
		sb = append(sb, r.Text...)
	}
	return string(sb)
}

func writeUvarint(w *bufio.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func readUvarint(r *bufio.Reader) (uint64, error) { return binary.ReadUvarint(r) }

func writeFloat64(w *bufio.Writer, v float64) error {
	return writeInt64(w, int64(math.Float64bits(v)))
}

func readFloat64(r *bufio.Reader) (float64, error) {
	v, err := readInt64(r)
	return math.Float64frombits(uint64(v)), err
}

func writeInt64(w *bufio.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r *bufio.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}
